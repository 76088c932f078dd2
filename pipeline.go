package finpilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Role marks which side of the chat a transcript turn belongs to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one rendered line of the chat transcript.
type ChatTurn struct {
	Role   Role
	Text   string
	TaskID string
}

// Pipeline is the simulated async task pipeline. Submit registers a pending
// task and returns immediately; a scheduler callback resolves it after the
// kind's configured latency and notifies subscribers. Tasks cannot be
// cancelled: every submission eventually resolves or fails.
type Pipeline struct {
	store    Store
	sched    Scheduler
	cfg      Config
	log      *zap.Logger
	resp     *Responder
	receipts *ReceiptGenerator
	accounts *AccountRegistry
	now      func() time.Time
	selector Selector
	seed     int64

	mu        sync.Mutex
	subs      []func(Task)
	chatOrder []string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) { p.cfg = cfg }
}

// WithScheduler injects a Scheduler; tests pass a ManualScheduler to drive
// virtual time.
func WithScheduler(s Scheduler) Option {
	return func(p *Pipeline) { p.sched = s }
}

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithSelector injects the general-advice Selector used by the chat
// responder when no category matches.
func WithSelector(s Selector) Option {
	return func(p *Pipeline) { p.selector = s }
}

// WithSeed seeds the receipt generator for reproducible synthetic output.
func WithSeed(seed int64) Option {
	return func(p *Pipeline) { p.seed = seed }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a Pipeline over a Store. The zero configuration is
// DefaultConfig with a wall-clock scheduler.
func New(store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		sched:    NewRealScheduler(),
		cfg:      DefaultConfig(),
		log:      zap.NewNop(),
		accounts: NewAccountRegistry(),
		now:      time.Now,
		seed:     time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.resp = NewResponder(p.cfg.Chat, p.selector)
	p.receipts = NewReceiptGenerator(p.cfg.Receipt, p.seed)
	return p
}

// Subscribe registers a callback invoked with a committed task copy after
// every resolution, success or failure. Callbacks run on the scheduler
// goroutine and must not block.
func (p *Pipeline) Subscribe(fn func(Task)) {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
}

// Accounts exposes the connected-accounts registry.
func (p *Pipeline) Accounts() *AccountRegistry {
	return p.accounts
}

// Submit validates the input, commits a pending task, schedules its
// resolution and returns the task id without blocking. Validation failures
// return a *ValidationError and create no task.
func (p *Pipeline) Submit(ctx context.Context, kind Kind, input any) (string, error) {
	var (
		payload any
		delay   time.Duration
	)
	switch kind {
	case KindChatMessage:
		in, ok := input.(ChatMessageInput)
		if !ok {
			return "", &ValidationError{Field: "input", Reason: fmt.Sprintf("chat_message requires ChatMessageInput, got %T", input)}
		}
		if strings.TrimSpace(in.Text) == "" {
			return "", &ValidationError{Field: "text", Reason: "message is blank"}
		}
		payload, delay = in, p.cfg.ChatDelay()
	case KindReceiptUpload:
		in, ok := input.(ReceiptUploadInput)
		if !ok {
			return "", &ValidationError{Field: "input", Reason: fmt.Sprintf("receipt_upload requires ReceiptUploadInput, got %T", input)}
		}
		if strings.TrimSpace(in.FileName) == "" {
			return "", &ValidationError{Field: "file_name", Reason: "no file supplied"}
		}
		if !acceptedMediaType(in.MediaType) {
			return "", &ValidationError{Field: "media_type", Reason: fmt.Sprintf("unsupported media type %q", in.MediaType)}
		}
		payload, delay = in, p.cfg.ReceiptDelay()
	case KindAccountConnect:
		in, ok := input.(AccountConnectInput)
		if !ok {
			return "", &ValidationError{Field: "input", Reason: fmt.Sprintf("account_connect requires AccountConnectInput, got %T", input)}
		}
		if strings.TrimSpace(in.AccountName) == "" {
			return "", &ValidationError{Field: "account_name", Reason: "account name is blank"}
		}
		if err := p.accounts.Reserve(in.Provider); err != nil {
			return "", err
		}
		payload, delay = in, p.cfg.ConnectDelay()
	default:
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		if kind == KindAccountConnect {
			p.accounts.Release(payload.(AccountConnectInput).Provider)
		}
		return "", fmt.Errorf("encode payload: %w", err)
	}

	task := Task{
		ID:          uuid.NewString(),
		Kind:        kind,
		PayloadJSON: string(payloadBytes),
		Status:      StatusPending,
		SubmittedAt: p.now().UTC(),
	}
	if err := p.store.InsertPending(ctx, task); err != nil {
		if kind == KindAccountConnect {
			p.accounts.Release(payload.(AccountConnectInput).Provider)
		}
		return "", fmt.Errorf("insert pending task: %w", err)
	}
	if kind == KindChatMessage {
		p.mu.Lock()
		p.chatOrder = append(p.chatOrder, task.ID)
		p.mu.Unlock()
	}

	p.log.Info("task submitted",
		zap.String("task_id", task.ID),
		zap.String("kind", string(kind)),
		zap.Duration("delay", delay))
	p.sched.AfterFunc(delay, func() { p.resolve(task.ID) })
	return task.ID, nil
}

// resolve is the scheduler callback. It computes the kind-specific result
// and commits pending -> resolved or pending -> failed exactly once; a task
// that already reached a terminal state is left alone.
func (p *Pipeline) resolve(taskID string) {
	ctx := context.Background()
	task, err := p.store.GetByID(ctx, taskID)
	if err != nil {
		p.log.Warn("resolve: task lookup failed", zap.String("task_id", taskID), zap.Error(err))
		return
	}
	if task.Terminal() {
		return
	}

	result, err := p.computeResult(task)
	if err != nil {
		if task.Kind == KindAccountConnect {
			var in AccountConnectInput
			if json.Unmarshal([]byte(task.PayloadJSON), &in) == nil {
				p.accounts.Release(in.Provider)
			}
		}
		if markErr := p.store.MarkFailed(ctx, taskID, err.Error(), p.now()); markErr != nil {
			p.log.Warn("resolve: mark failed", zap.String("task_id", taskID), zap.Error(markErr))
			return
		}
		p.log.Info("task failed", zap.String("task_id", taskID), zap.String("kind", string(task.Kind)), zap.Error(err))
	} else {
		if markErr := p.store.MarkResolved(ctx, taskID, result, p.now()); markErr != nil {
			p.log.Warn("resolve: mark resolved", zap.String("task_id", taskID), zap.Error(markErr))
			return
		}
		p.log.Info("task resolved", zap.String("task_id", taskID), zap.String("kind", string(task.Kind)))
	}

	committed, err := p.store.GetByID(ctx, taskID)
	if err != nil {
		return
	}
	p.notify(*committed)
}

func (p *Pipeline) computeResult(task *Task) (string, error) {
	switch task.Kind {
	case KindChatMessage:
		var in ChatMessageInput
		if err := json.Unmarshal([]byte(task.PayloadJSON), &in); err != nil {
			return "", &ResolutionError{Kind: task.Kind, Reason: fmt.Sprintf("bad payload: %v", err)}
		}
		return marshalResult(task.Kind, p.resp.Reply(in))
	case KindReceiptUpload:
		receipt, err := p.receipts.Generate(p.now())
		if err != nil {
			return "", err
		}
		if err := CheckTotal(receipt); err != nil {
			return "", err
		}
		return marshalResult(task.Kind, receipt)
	case KindAccountConnect:
		var in AccountConnectInput
		if err := json.Unmarshal([]byte(task.PayloadJSON), &in); err != nil {
			return "", &ResolutionError{Kind: task.Kind, Reason: fmt.Sprintf("bad payload: %v", err)}
		}
		rec := AccountRecord{Provider: in.Provider, AccountName: in.AccountName}
		p.accounts.Commit(rec)
		return marshalResult(task.Kind, rec)
	}
	return "", &ResolutionError{Kind: task.Kind, Reason: "no resolver for kind"}
}

func marshalResult(kind Kind, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", &ResolutionError{Kind: kind, Reason: fmt.Sprintf("encode result: %v", err)}
	}
	return string(b), nil
}

func (p *Pipeline) notify(task Task) {
	p.mu.Lock()
	subs := make([]func(Task), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(task)
	}
}

// Snapshot returns all tasks in submission order.
func (p *Pipeline) Snapshot(ctx context.Context) ([]Task, error) {
	return p.store.List(ctx)
}

// Receipts returns receipt tasks most recent first, the order the scanner
// page displays them.
func (p *Pipeline) Receipts(ctx context.Context) ([]Task, error) {
	all, err := p.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Task
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Kind == KindReceiptUpload {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// ChatTranscript renders the chat in strict submission order. A user turn
// appears as soon as its message is submitted; the matching assistant turn
// appears only once that task resolved AND every earlier chat task is
// already terminal, so replies never display out of order even when timers
// fire with jitter.
func (p *Pipeline) ChatTranscript(ctx context.Context) ([]ChatTurn, error) {
	p.mu.Lock()
	order := make([]string, len(p.chatOrder))
	copy(order, p.chatOrder)
	p.mu.Unlock()

	var turns []ChatTurn
	priorComplete := true
	for _, id := range order {
		task, err := p.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		var in ChatMessageInput
		if err := json.Unmarshal([]byte(task.PayloadJSON), &in); err != nil {
			return nil, fmt.Errorf("decode chat payload %s: %w", id, err)
		}
		turns = append(turns, ChatTurn{Role: RoleUser, Text: in.Text, TaskID: id})
		if !priorComplete || !task.Terminal() {
			priorComplete = false
			continue
		}
		switch task.Status {
		case StatusResolved:
			var res ChatResult
			if err := json.Unmarshal([]byte(*task.ResultJSON), &res); err != nil {
				return nil, fmt.Errorf("decode chat result %s: %w", id, err)
			}
			turns = append(turns, ChatTurn{Role: RoleAssistant, Text: res.ReplyText, TaskID: id})
		case StatusFailed:
			turns = append(turns, ChatTurn{Role: RoleAssistant, Text: "Sorry, I couldn't answer that: " + *task.ErrorMsg, TaskID: id})
		}
	}
	return turns, nil
}

func acceptedMediaType(mt string) bool {
	return strings.HasPrefix(mt, "image/") || mt == "application/pdf"
}
