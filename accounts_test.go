package finpilot

import (
	"errors"
	"testing"
)

func TestAccountRegistry_ReserveCommit(t *testing.T) {
	r := NewAccountRegistry()

	if err := r.Reserve(ProviderBank); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	// second reserve while the first is in flight
	err := r.Reserve(ProviderBank)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("want *ValidationError for in-flight duplicate, got %v", err)
	}

	r.Commit(AccountRecord{Provider: ProviderBank, AccountName: "HDFC Bank"})

	// reserve after commit: still rejected, the provider is connected
	if err := r.Reserve(ProviderBank); !errors.As(err, &valErr) {
		t.Fatalf("want *ValidationError for connected duplicate, got %v", err)
	}

	got := r.Connected()
	if len(got) != 1 || got[0].Provider != ProviderBank || got[0].AccountName != "HDFC Bank" {
		t.Fatalf("unexpected connected list: %#v", got)
	}
}

func TestAccountRegistry_ReleaseAllowsRetry(t *testing.T) {
	r := NewAccountRegistry()

	if err := r.Reserve(ProviderUPI); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	r.Release(ProviderUPI)
	if err := r.Reserve(ProviderUPI); err != nil {
		t.Fatalf("Reserve after Release: %v", err)
	}
}

func TestAccountRegistry_UnknownProvider(t *testing.T) {
	r := NewAccountRegistry()
	var valErr *ValidationError
	if err := r.Reserve(ProviderType("crypto")); !errors.As(err, &valErr) {
		t.Fatalf("want *ValidationError for unknown provider, got %v", err)
	}
}

func TestAccountRegistry_ConnectedOrder(t *testing.T) {
	r := NewAccountRegistry()
	for _, p := range []ProviderType{ProviderCard, ProviderBank} {
		if err := r.Reserve(p); err != nil {
			t.Fatalf("Reserve(%s): %v", p, err)
		}
	}
	r.Commit(AccountRecord{Provider: ProviderCard, AccountName: "SBI Credit Card"})
	r.Commit(AccountRecord{Provider: ProviderBank, AccountName: "ICICI Bank"})

	got := r.Connected()
	if len(got) != 2 || got[0].Provider != ProviderBank || got[1].Provider != ProviderCard {
		t.Fatalf("want bank before card, got %#v", got)
	}
}
