package finpilot

import (
	"sync"
	"time"
)

// Scheduler defers a callback by a duration. The pipeline schedules every
// resolution through it, so tests can substitute ManualScheduler and drive
// virtual time instead of sleeping.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// NewRealScheduler returns the wall-clock Scheduler backed by time.AfterFunc.
func NewRealScheduler() Scheduler {
	return realScheduler{}
}

// ManualScheduler collects callbacks and runs them only when told to.
// Nothing ever fires inline from AfterFunc, so a submitted task is always
// observable as pending before its resolution runs.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(_ time.Duration, f func()) {
	s.mu.Lock()
	s.pending = append(s.pending, f)
	s.mu.Unlock()
}

// Pending reports how many callbacks are queued.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Fire runs and removes the i-th queued callback (in schedule order).
// It returns false when i is out of range. Firing out of order simulates
// timer jitter across kinds.
func (s *ManualScheduler) Fire(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.pending) {
		s.mu.Unlock()
		return false
	}
	f := s.pending[i]
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	s.mu.Unlock()
	f()
	return true
}

// FireAll drains the queue in schedule order and returns how many callbacks
// ran, including any scheduled while draining.
func (s *ManualScheduler) FireAll() int {
	n := 0
	for s.Fire(0) {
		n++
	}
	return n
}
