package finpilot

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// Selector picks an index into the general-advice pool when no category
// matches. It is a seam so tests can pin the fallback reply.
type Selector interface {
	Pick(n int) int
}

type randomSelector struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSelector returns a uniform random Selector with the given seed.
func NewRandomSelector(seed int64) Selector {
	return &randomSelector{r: rand.New(rand.NewSource(seed))}
}

func (s *randomSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// Responder derives chat replies by keyword-category matching: the input is
// lowercased and tested against each category's keywords in table order; the
// first hit wins. Inputs matching nothing draw from the general pool via the
// Selector. Templates are interpolated with the caller's financial snapshot,
// or the configured default when none is supplied.
type Responder struct {
	cfg      ChatConfig
	selector Selector
}

func NewResponder(cfg ChatConfig, selector Selector) *Responder {
	if selector == nil {
		selector = NewRandomSelector(1)
	}
	return &Responder{cfg: cfg, selector: selector}
}

// Reply computes the assistant turn for a user message. It is deterministic
// for any input that matches a category.
func (r *Responder) Reply(input ChatMessageInput) ChatResult {
	snapshot := r.cfg.DefaultSnapshot
	if input.Snapshot != nil {
		snapshot = *input.Snapshot
	}
	lowered := strings.ToLower(input.Text)
	for _, cat := range r.cfg.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lowered, kw) {
				return ChatResult{
					UserText:  input.Text,
					ReplyText: interpolate(cat.Template, snapshot),
					Category:  cat.Name,
				}
			}
		}
	}
	reply := "How can I help with your finances today?"
	if len(r.cfg.General) > 0 {
		reply = r.cfg.General[r.selector.Pick(len(r.cfg.General))]
	}
	return ChatResult{
		UserText:  input.Text,
		ReplyText: interpolate(reply, snapshot),
		Category:  "general",
	}
}

// interpolate fills the {balance}, {spending}, {category} and
// {category_amount} placeholders from a snapshot.
func interpolate(template string, s FinancialSnapshot) string {
	top := s.TopCategory()
	if top.Name == "" {
		top.Name = "everyday spending"
	}
	return strings.NewReplacer(
		"{balance}", humanize.Comma(s.Balance),
		"{spending}", humanize.Comma(s.MonthlySpending),
		"{category}", top.Name,
		"{category_amount}", humanize.Comma(top.Amount),
	).Replace(template)
}
