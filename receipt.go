package finpilot

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptGenerator fabricates receipt results from the configured catalog.
// The uploaded file's bytes are never read; the output is synthetic. A real
// OCR service would replace Generate without touching the pipeline contract.
type ReceiptGenerator struct {
	cfg ReceiptConfig
	mu  sync.Mutex // timers may resolve concurrently; rand.Rand is not safe for that
	r   *rand.Rand
}

// NewReceiptGenerator builds a generator over cfg, seeded for reproducible
// output in tests.
func NewReceiptGenerator(cfg ReceiptConfig, seed int64) *ReceiptGenerator {
	return &ReceiptGenerator{cfg: cfg, r: rand.New(rand.NewSource(seed))}
}

// Generate picks a store, a handful of catalog items with quantities, and a
// tax amount, then totals them with decimal arithmetic. The returned result
// always satisfies Total = sum(UnitPrice*Quantity) + Tax.
func (g *ReceiptGenerator) Generate(now time.Time) (ReceiptResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.cfg.Catalog) == 0 {
		return ReceiptResult{}, &ResolutionError{Kind: KindReceiptUpload, Reason: "receipt catalog is empty"}
	}
	if len(g.cfg.StoreNames) == 0 {
		return ReceiptResult{}, &ResolutionError{Kind: KindReceiptUpload, Reason: "no store names configured"}
	}
	tax, err := decimal.NewFromString(g.cfg.Tax)
	if err != nil {
		return ReceiptResult{}, &ResolutionError{Kind: KindReceiptUpload, Reason: fmt.Sprintf("bad tax amount %q", g.cfg.Tax)}
	}

	minItems := g.cfg.MinItems
	if minItems < 1 {
		minItems = 1
	}
	maxItems := g.cfg.MaxItems
	if maxItems < minItems {
		maxItems = minItems
	}
	if maxItems > len(g.cfg.Catalog) {
		maxItems = len(g.cfg.Catalog)
	}
	if minItems > maxItems {
		minItems = maxItems
	}
	count := minItems + g.r.Intn(maxItems-minItems+1)

	picks := g.r.Perm(len(g.cfg.Catalog))[:count]
	maxQty := g.cfg.MaxQuantity
	if maxQty < 1 {
		maxQty = 1
	}

	items := make([]ReceiptItem, 0, count)
	total := tax
	for _, idx := range picks {
		entry := g.cfg.Catalog[idx]
		price, err := decimal.NewFromString(entry.UnitPrice)
		if err != nil {
			return ReceiptResult{}, &ResolutionError{Kind: KindReceiptUpload, Reason: fmt.Sprintf("bad unit price %q for %s", entry.UnitPrice, entry.Name)}
		}
		qty := 1 + g.r.Intn(maxQty)
		items = append(items, ReceiptItem{Name: entry.Name, UnitPrice: price, Quantity: qty})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}

	return ReceiptResult{
		StoreName: g.cfg.StoreNames[g.r.Intn(len(g.cfg.StoreNames))],
		Date:      now.Format("2006-01-02"),
		Items:     items,
		Tax:       tax,
		Total:     total,
	}, nil
}

// CheckTotal verifies the receipt invariant. Resolution refuses to commit a
// result that fails it.
func CheckTotal(r ReceiptResult) error {
	sum := r.Tax
	for _, item := range r.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !sum.Equal(r.Total) {
		return &ResolutionError{
			Kind:   KindReceiptUpload,
			Reason: fmt.Sprintf("total %s does not match items+tax %s", r.Total, sum),
		}
	}
	return nil
}
