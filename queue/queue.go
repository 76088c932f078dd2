// Package queue runs pipeline resolutions on an asynq worker pool instead of
// in-process timers. The task contract is unchanged: Enqueue commits a
// pending record, the worker resolves or fails it, and consumers read the
// same Store. This is the seam where real OCR, LLM or banking backends plug
// in.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/mohans/finpilot"
)

// Client wraps asynq.Client and a Store to persist task records alongside
// enqueued work.
type Client struct {
	client *asynq.Client
	store  finpilot.Store
	queue  string
}

type ClientOptions struct {
	Queue string
}

func NewClient(redisOpt asynq.RedisClientOpt, store finpilot.Store, opts ClientOptions) *Client {
	q := opts.Queue
	if q == "" {
		q = "default"
	}
	return &Client{
		client: asynq.NewClient(redisOpt),
		store:  store,
		queue:  q,
	}
}

// Enqueue puts a task of the given kind on the queue and inserts the pending
// record keyed by the asynq task id. It returns immediately.
func (c *Client) Enqueue(ctx context.Context, kind finpilot.Kind, payload any, options ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.client == nil {
		return nil, fmt.Errorf("nil asynq client")
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	t := asynq.NewTask(string(kind), payloadBytes)
	info, err := c.client.EnqueueContext(ctx, t, append(options, asynq.Queue(c.queue))...)
	if err != nil {
		return nil, err
	}
	rec := finpilot.Task{
		ID:          info.ID,
		Kind:        kind,
		PayloadJSON: string(payloadBytes),
		Status:      finpilot.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	if c.store != nil {
		if err := c.store.InsertPending(ctx, rec); err != nil {
			return info, fmt.Errorf("insert pending record: %w", err)
		}
	}
	return info, nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Resolver computes a task's result JSON from its payload. Returning an
// error marks the record failed with the error text.
type Resolver func(ctx context.Context, payload []byte) (resultJSON string, err error)

// Processor runs workers and commits resolved/failed records to the Store.
type Processor struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	store  finpilot.Store
	log    *zap.Logger
}

type ProcessorConfig struct {
	Concurrency int
	Queues      map[string]int
	Logger      *zap.Logger
}

func NewProcessor(redisOpt asynq.RedisClientOpt, store finpilot.Store, cfg ProcessorConfig) *Processor {
	con := cfg.Concurrency
	if con <= 0 {
		con = 10
	}
	qs := cfg.Queues
	if qs == nil {
		qs = map[string]int{"default": 1}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	server := asynq.NewServer(redisOpt, asynq.Config{Concurrency: con, Queues: qs})
	return &Processor{server: server, mux: asynq.NewServeMux(), store: store, log: log}
}

// Handle registers a resolver for one task kind, wrapped with the lifecycle
// bracketing that keeps the Store in step with the worker.
func (p *Processor) Handle(kind finpilot.Kind, fn Resolver) {
	p.mux.HandleFunc(string(kind), func(ctx context.Context, t *asynq.Task) error {
		id, _ := asynq.GetTaskID(ctx)
		result, err := fn(ctx, t.Payload())
		if p.store != nil && id != "" {
			if err != nil {
				_ = p.store.MarkFailed(ctx, id, err.Error(), time.Now().UTC())
			} else {
				_ = p.store.MarkResolved(ctx, id, result, time.Now().UTC())
			}
		}
		if err != nil {
			p.log.Info("task failed", zap.String("task_id", id), zap.String("kind", string(kind)), zap.Error(err))
			return err
		}
		p.log.Info("task resolved", zap.String("task_id", id), zap.String("kind", string(kind)))
		return nil
	})
}

// RegisterDefaults wires the three pipeline kinds to the standard resolvers
// built from cfg: the keyword-matching chat responder, the synthetic receipt
// generator and the trusting account connector.
func (p *Processor) RegisterDefaults(cfg finpilot.Config, registry *finpilot.AccountRegistry, seed int64) {
	responder := finpilot.NewResponder(cfg.Chat, finpilot.NewRandomSelector(seed))
	generator := finpilot.NewReceiptGenerator(cfg.Receipt, seed)

	p.Handle(finpilot.KindChatMessage, func(_ context.Context, payload []byte) (string, error) {
		var in finpilot.ChatMessageInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return "", err
		}
		return marshal(responder.Reply(in))
	})
	p.Handle(finpilot.KindReceiptUpload, func(_ context.Context, _ []byte) (string, error) {
		receipt, err := generator.Generate(time.Now())
		if err != nil {
			return "", err
		}
		if err := finpilot.CheckTotal(receipt); err != nil {
			return "", err
		}
		return marshal(receipt)
	})
	p.Handle(finpilot.KindAccountConnect, func(_ context.Context, payload []byte) (string, error) {
		var in finpilot.AccountConnectInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return "", err
		}
		rec := finpilot.AccountRecord{Provider: in.Provider, AccountName: in.AccountName}
		if registry != nil {
			registry.Commit(rec)
		}
		return marshal(rec)
	})
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Run starts the workers and blocks until Shutdown.
func (p *Processor) Run() error {
	return p.server.Run(p.mux)
}

func (p *Processor) Shutdown() { p.server.Shutdown() }
