package finpilot

import (
	"sync"

	"github.com/robfig/cron/v3"
)

// TipRotator serves the "daily financial wisdom" card: it cycles through the
// configured tips on a cron schedule. Current is safe for concurrent reads.
type TipRotator struct {
	mu   sync.Mutex
	tips []Tip
	idx  int
	cron *cron.Cron
	spec string
}

func NewTipRotator(cfg TipsConfig) *TipRotator {
	return &TipRotator{tips: cfg.Tips, spec: cfg.Rotation}
}

// Start schedules the rotation. Calling Start on an empty tip list is a
// no-op.
func (t *TipRotator) Start() error {
	if len(t.tips) == 0 {
		return nil
	}
	t.cron = cron.New()
	if _, err := t.cron.AddFunc(t.spec, t.Advance); err != nil {
		return err
	}
	t.cron.Start()
	return nil
}

// Stop halts the rotation schedule.
func (t *TipRotator) Stop() {
	if t.cron != nil {
		t.cron.Stop()
	}
}

// Advance moves to the next tip, wrapping around.
func (t *TipRotator) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.tips) == 0 {
		return
	}
	t.idx = (t.idx + 1) % len(t.tips)
}

// Current returns today's tip.
func (t *TipRotator) Current() Tip {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.tips) == 0 {
		return Tip{}
	}
	return t.tips[t.idx]
}
