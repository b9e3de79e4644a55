// Package host runs ledger operations the way the hosting platform would:
// one serialized, all-or-nothing invocation at a time, with the ledger
// sequence and timestamp fixed for the duration of the invocation.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"tycoon_ledger/internal/auth"
	"tycoon_ledger/internal/domain"
	"tycoon_ledger/internal/events"
	"tycoon_ledger/internal/logger"
	"tycoon_ledger/internal/store"
)

const publishTimeout = 5 * time.Second

// ErrPanicked wraps a panic recovered from an operation.
var ErrPanicked = errors.New("invocation panicked")

// Host owns the store backend and the collaborators every invocation sees.
type Host struct {
	backend    store.Backend
	authorizer auth.Authorizer
	sink       events.Sink
	clock      clockwork.Clock
	self       domain.Address
	metrics    *metrics
}

type Option func(*options)

type options struct {
	clock      clockwork.Clock
	self       domain.Address
	registerer prometheus.Registerer
}

// WithClock sets the source of ledger timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSelf sets the ledger's own address, the treasury that custodies tokens.
func WithSelf(addr domain.Address) Option {
	return func(o *options) { o.self = addr }
}

// WithRegisterer sets where metrics are registered. nil disables registration.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

func New(backend store.Backend, authorizer auth.Authorizer, sink events.Sink, opts ...Option) *Host {
	o := options{
		clock:      clockwork.NewRealClock(),
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if sink == nil {
		sink = events.LogSink{}
	}

	return &Host{
		backend:    backend,
		authorizer: authorizer,
		sink:       sink,
		clock:      o.clock,
		self:       o.self,
		metrics:    newMetrics(o.registerer),
	}
}

// Self is the treasury address.
func (h *Host) Self() domain.Address { return h.self }

// Ping checks the store backend.
func (h *Host) Ping(ctx context.Context) error { return h.backend.Ping(ctx) }

// Invocation is the context an operation runs in.
type Invocation struct {
	ID        uuid.UUID
	Op        string
	State     *store.State
	Sequence  uint32
	Timestamp uint64
	Self      domain.Address

	host    *Host
	pending []events.Event
}

// RequireAuth fails unless addr authorized the current call.
func (inv *Invocation) RequireAuth(ctx context.Context, addr domain.Address) error {
	return inv.host.authorizer.RequireAuth(ctx, addr)
}

// Emit buffers an event. It is published only if the invocation commits.
func (inv *Invocation) Emit(topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	inv.pending = append(inv.pending, events.Event{
		ID:           uuid.New(),
		InvocationID: inv.ID,
		Topic:        topic,
		Sequence:     inv.Sequence,
		Timestamp:    inv.Timestamp,
		Payload:      b,
	})
	return nil
}

// Invoke runs fn in a fresh transaction. fn's writes commit only if it
// returns nil; otherwise every write is discarded along with buffered events.
func (h *Host) Invoke(ctx context.Context, op string, fn func(ctx context.Context, inv *Invocation) error) (err error) {
	start := h.clock.Now()
	log := logger.With("operation", op)

	txn, err := h.backend.Begin(ctx)
	if err != nil {
		h.observe(op, "store_error", start)
		log.Error("begin invocation failed", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = txn.Rollback(ctx) }()

	inv := &Invocation{
		ID:        uuid.New(),
		Op:        op,
		State:     store.NewState(txn),
		Sequence:  txn.Sequence(),
		Timestamp: uint64(h.clock.Now().Unix()),
		Self:      h.self,
		host:      h,
	}
	log = log.With("invocation_id", inv.ID.String(), "sequence", inv.Sequence)

	if err := run(ctx, inv, fn); err != nil {
		if rbErr := txn.Rollback(ctx); rbErr != nil {
			log.Error("rollback failed", "error", rbErr)
		}
		reason := Reason(err)
		h.observe(op, reason, start)
		log.Info("invocation aborted", "reason", reason, "error", err)
		return err
	}

	if err := txn.Commit(ctx); err != nil {
		h.observe(op, "store_error", start)
		log.Error("commit failed", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	h.observe(op, "ok", start)
	log.Debug("invocation committed", "events", len(inv.pending))

	h.publish(ctx, inv.pending)
	return nil
}

func run(ctx context.Context, inv *Invocation, fn func(ctx context.Context, inv *Invocation) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn(ctx, inv)
}

func (h *Host) publish(ctx context.Context, evs []events.Event) {
	if len(evs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, ev := range evs {
		result := "ok"
		if err := h.sink.Publish(ctx, ev); err != nil {
			result = "error"
			logger.Warn("event publish failed", "topic", ev.Topic, "event_id", ev.ID.String(), "error", err)
		}
		h.metrics.events.WithLabelValues(ev.Topic, result).Inc()
	}
}

func (h *Host) observe(op, result string, start time.Time) {
	h.metrics.invocations.WithLabelValues(op, result).Inc()
	h.metrics.duration.WithLabelValues(op).Observe(h.clock.Since(start).Seconds())
}

// Reason is the short abort code for err, used as a metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, domain.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidUsername):
		return "invalid_username"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrExternalCall):
		return "external_call_failure"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrPanicked):
		return "panic"
	default:
		return "error"
	}
}
