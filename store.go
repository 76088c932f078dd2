package finpilot

import (
	"context"
	"sync"
	"time"
)

// Store abstracts persistence for task lifecycle records.
// Implementations must be safe for concurrent use and must enforce
// terminality: MarkResolved/MarkFailed on a non-pending task returns
// ErrTaskTerminal without changing anything.
type Store interface {
	InsertPending(ctx context.Context, task Task) error
	MarkResolved(ctx context.Context, taskID string, resultJSON string, resolvedAt time.Time) error
	MarkFailed(ctx context.Context, taskID string, errorMsg string, resolvedAt time.Time) error
	GetByID(ctx context.Context, taskID string) (*Task, error)
	// List returns a snapshot of all tasks in insertion order. Entries are
	// copies; mutating them does not affect the store.
	List(ctx context.Context) ([]Task, error)
}

// MemoryStore is the default in-process Store. Insertion order is preserved
// for display; all access goes through a single mutex so snapshots never
// observe a half-written task.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*Task)}
}

func (s *MemoryStore) InsertPending(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.Status = StatusPending
	task.ResultJSON = nil
	task.ErrorMsg = nil
	task.ResolvedAt = nil
	s.tasks[task.ID] = &task
	s.order = append(s.order, task.ID)
	return nil
}

func (s *MemoryStore) MarkResolved(_ context.Context, taskID string, resultJSON string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Terminal() {
		return ErrTaskTerminal
	}
	t.Status = StatusResolved
	t.ResultJSON = &resultJSON
	ts := resolvedAt.UTC()
	t.ResolvedAt = &ts
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, taskID string, errorMsg string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Terminal() {
		return ErrTaskTerminal
	}
	t.Status = StatusFailed
	t.ErrorMsg = &errorMsg
	ts := resolvedAt.UTC()
	t.ResolvedAt = &ts
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, taskID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := copyTask(t)
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyTask(s.tasks[id]))
	}
	return out, nil
}

// copyTask detaches pointer fields so snapshot consumers cannot reach back
// into the store.
func copyTask(t *Task) Task {
	cp := *t
	if t.ErrorMsg != nil {
		v := *t.ErrorMsg
		cp.ErrorMsg = &v
	}
	if t.ResultJSON != nil {
		v := *t.ResultJSON
		cp.ResultJSON = &v
	}
	if t.ResolvedAt != nil {
		ts := *t.ResolvedAt
		cp.ResolvedAt = &ts
	}
	return cp
}
