package finpilot

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestReceiptGenerator_TotalInvariant(t *testing.T) {
	g := NewReceiptGenerator(DefaultConfig().Receipt, 42)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		res, err := g.Generate(now)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(res.Items) < 1 {
			t.Fatalf("want at least one item, got %d", len(res.Items))
		}
		sum := res.Tax
		for _, item := range res.Items {
			sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if !sum.Equal(res.Total) {
			t.Fatalf("total %s != items+tax %s", res.Total, sum)
		}
		if err := CheckTotal(res); err != nil {
			t.Fatalf("CheckTotal: %v", err)
		}
	}
}

func TestReceiptGenerator_RespectsItemBounds(t *testing.T) {
	cfg := DefaultConfig().Receipt
	cfg.MinItems = 2
	cfg.MaxItems = 3
	g := NewReceiptGenerator(cfg, 7)

	for i := 0; i < 20; i++ {
		res, err := g.Generate(time.Now())
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(res.Items) < 2 || len(res.Items) > 3 {
			t.Fatalf("item count %d outside [2,3]", len(res.Items))
		}
	}
}

func TestReceiptGenerator_DeterministicForSeed(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	a, err := NewReceiptGenerator(DefaultConfig().Receipt, 99).Generate(now)
	if err != nil {
		t.Fatalf("Generate a: %v", err)
	}
	b, err := NewReceiptGenerator(DefaultConfig().Receipt, 99).Generate(now)
	if err != nil {
		t.Fatalf("Generate b: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different receipts:\n%#v\n%#v", a, b)
	}
}

func TestReceiptGenerator_EmptyCatalog(t *testing.T) {
	cfg := DefaultConfig().Receipt
	cfg.Catalog = nil
	g := NewReceiptGenerator(cfg, 1)

	_, err := g.Generate(time.Now())
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("want *ResolutionError, got %v", err)
	}
	if resErr.Kind != KindReceiptUpload {
		t.Fatalf("want receipt_upload kind, got %s", resErr.Kind)
	}
}

func TestCheckTotal_RejectsMismatch(t *testing.T) {
	res := ReceiptResult{
		StoreName: "Walmart Supercenter",
		Items: []ReceiptItem{
			{Name: "Whole Milk", UnitPrice: decimal.RequireFromString("4.29"), Quantity: 2},
		},
		Tax:   decimal.RequireFromString("2.34"),
		Total: decimal.RequireFromString("99.99"),
	}
	if err := CheckTotal(res); err == nil {
		t.Fatal("want error for inconsistent total, got nil")
	}
}
