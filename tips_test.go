package finpilot

import "testing"

func TestTipRotator_AdvanceWrapsAround(t *testing.T) {
	cfg := TipsConfig{
		Rotation: "0 0 * * *",
		Tips: []Tip{
			{Title: "Track Every Expense"},
			{Title: "Automate Savings"},
			{Title: "Emergency Fund First"},
		},
	}
	r := NewTipRotator(cfg)

	want := []string{
		"Track Every Expense",
		"Automate Savings",
		"Emergency Fund First",
		"Track Every Expense",
	}
	for i, title := range want {
		if got := r.Current().Title; got != title {
			t.Fatalf("day %d: want %q, got %q", i, title, got)
		}
		r.Advance()
	}
}

func TestTipRotator_Empty(t *testing.T) {
	r := NewTipRotator(TipsConfig{})
	if err := r.Start(); err != nil {
		t.Fatalf("Start on empty rotator: %v", err)
	}
	r.Advance()
	if got := r.Current(); got != (Tip{}) {
		t.Fatalf("want zero tip, got %#v", got)
	}
}

func TestTipRotator_StartStop(t *testing.T) {
	r := NewTipRotator(DefaultConfig().Tips)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Stop()
}

func TestTipRotator_BadCronSpec(t *testing.T) {
	r := NewTipRotator(TipsConfig{Rotation: "not a cron spec", Tips: []Tip{{Title: "x"}}})
	if err := r.Start(); err == nil {
		t.Fatal("want error for invalid rotation spec")
	}
	r.Stop()
}
