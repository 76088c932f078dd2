package finpilot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Tables(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ChatDelay() != 1500*time.Millisecond {
		t.Fatalf("want 1.5s chat delay, got %s", cfg.ChatDelay())
	}
	if cfg.ReceiptDelay() != 3*time.Second {
		t.Fatalf("want 3s receipt delay, got %s", cfg.ReceiptDelay())
	}
	if len(cfg.Chat.Categories) == 0 || cfg.Chat.Categories[0].Name != "budget" {
		t.Fatalf("budget must be the first category: %#v", cfg.Chat.Categories)
	}
	if len(cfg.Chat.General) == 0 {
		t.Fatal("general pool is empty")
	}
	if cfg.Chat.DefaultSnapshot.Balance != 117650 || cfg.Chat.DefaultSnapshot.MonthlySpending != 45280 {
		t.Fatalf("unexpected default snapshot: %#v", cfg.Chat.DefaultSnapshot)
	}
	if len(cfg.Receipt.Catalog) == 0 || len(cfg.Receipt.StoreNames) == 0 {
		t.Fatal("receipt tables are empty")
	}
	if len(cfg.Providers.ByType(ProviderBank)) == 0 || len(cfg.Providers.ByType(ProviderUPI)) == 0 || len(cfg.Providers.ByType(ProviderCard)) == 0 {
		t.Fatal("provider catalogs are empty")
	}
	if len(cfg.Tips.Tips) == 0 || cfg.Tips.Rotation == "" {
		t.Fatal("tip rotation not configured")
	}
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finpilot.yaml")
	doc := `
latency:
  chat_ms: 10
receipt:
  catalog:
    - name: "Test Item"
      unit_price: "1.50"
  tax: "0.10"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ChatDelay() != 10*time.Millisecond {
		t.Fatalf("chat delay not overridden: %s", cfg.ChatDelay())
	}
	// absent keys keep defaults
	if cfg.ReceiptDelay() != 3*time.Second {
		t.Fatalf("receipt delay default lost: %s", cfg.ReceiptDelay())
	}
	if len(cfg.Chat.Categories) == 0 {
		t.Fatal("chat categories default lost")
	}
	if len(cfg.Receipt.Catalog) != 1 || cfg.Receipt.Catalog[0].Name != "Test Item" {
		t.Fatalf("catalog not replaced: %#v", cfg.Receipt.Catalog)
	}
	if cfg.Receipt.Tax != "0.10" {
		t.Fatalf("tax not replaced: %q", cfg.Receipt.Tax)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
