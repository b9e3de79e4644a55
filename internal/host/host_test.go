package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tycoon_ledger/internal/auth"
	"tycoon_ledger/internal/domain"
	"tycoon_ledger/internal/events"
	"tycoon_ledger/internal/store"
)

type recordingSink struct {
	mu  sync.Mutex
	evs []events.Event
	err error
}

func (s *recordingSink) Publish(ctx context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evs = append(s.evs, ev)
	return s.err
}

func (s *recordingSink) published() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.evs...)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func seriesCount(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func newTestHost(t *testing.T) (*Host, *store.MemoryBackend, *recordingSink, *clockwork.FakeClock, *prometheus.Registry) {
	t.Helper()
	backend := store.NewMemoryBackend()
	sink := &recordingSink{}
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	reg := prometheus.NewRegistry()
	h := New(backend, auth.SignerAuthorizer{}, sink,
		WithClock(clock),
		WithSelf("GTREASURY"),
		WithRegisterer(reg),
	)
	return h, backend, sink, clock, reg
}

func TestInvokeCommitsAndPublishes(t *testing.T) {
	h, _, sink, _, reg := newTestHost(t)
	ctx := context.Background()

	err := h.Invoke(ctx, "set_cash_tier_value", func(ctx context.Context, inv *Invocation) error {
		assert.Equal(t, uint64(1_700_000_000), inv.Timestamp)
		assert.Equal(t, domain.Address("GTREASURY"), inv.Self)
		assert.Equal(t, "set_cash_tier_value", inv.Op)
		if err := inv.State.SetCashTier(ctx, 1, domain.NewAmount(500)); err != nil {
			return err
		}
		return inv.Emit("tier_set", map[string]string{"tier": "1"})
	})
	require.NoError(t, err)

	err = h.Invoke(ctx, "get_cash_tier_value", func(ctx context.Context, inv *Invocation) error {
		v, ok, err := inv.State.CashTier(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "500", v.String())
		return nil
	})
	require.NoError(t, err)

	evs := sink.published()
	require.Len(t, evs, 1)
	assert.Equal(t, "tier_set", evs[0].Topic)
	assert.JSONEq(t, `{"tier":"1"}`, string(evs[0].Payload))
	assert.Equal(t, uint64(1_700_000_000), evs[0].Timestamp)

	assert.Equal(t, 1.0, counterValue(t, h.metrics.invocations.WithLabelValues("set_cash_tier_value", "ok")))
	assert.Equal(t, 1.0, counterValue(t, h.metrics.events.WithLabelValues("tier_set", "ok")))
	assert.Equal(t, 2, seriesCount(t, reg, "tycoon_invocation_duration_seconds"))
}

func TestInvokeRollsBackOnError(t *testing.T) {
	h, backend, sink, _, _ := newTestHost(t)
	ctx := context.Background()

	err := h.Invoke(ctx, "withdraw_funds", func(ctx context.Context, inv *Invocation) error {
		require.NoError(t, inv.State.SetCashTier(ctx, 7, domain.NewAmount(1)))
		require.NoError(t, inv.Emit(domain.TopicFundsWithdrawn, domain.FundsWithdrawn{}))
		return domain.ErrInsufficientBalance
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.Empty(t, sink.published())
	assert.Equal(t, 0, backend.Len(store.TierPersistent))
	assert.Equal(t, 1.0, counterValue(t, h.metrics.invocations.WithLabelValues("withdraw_funds", "insufficient_balance")))
}

func TestInvokeRecoversPanic(t *testing.T) {
	h, backend, _, _, _ := newTestHost(t)
	ctx := context.Background()

	err := h.Invoke(ctx, "boom", func(ctx context.Context, inv *Invocation) error {
		require.NoError(t, inv.State.SetCashTier(ctx, 1, domain.NewAmount(1)))
		panic("out of gas")
	})
	require.ErrorIs(t, err, ErrPanicked)
	assert.Equal(t, 0, backend.Len(store.TierPersistent))

	// the backend lock was released
	err = h.Invoke(ctx, "after", func(ctx context.Context, inv *Invocation) error { return nil })
	require.NoError(t, err)
}

func TestInvokeSequenceAdvances(t *testing.T) {
	h, _, _, _, _ := newTestHost(t)
	ctx := context.Background()

	var seqs []uint32
	for i := 0; i < 3; i++ {
		err := h.Invoke(ctx, "noop", func(ctx context.Context, inv *Invocation) error {
			seqs = append(seqs, inv.Sequence)
			return nil
		})
		require.NoError(t, err)
	}
	require.Len(t, seqs, 3)
	assert.Less(t, seqs[0], seqs[1])
	assert.Less(t, seqs[1], seqs[2])
}

func TestInvokeTimestampFollowsClock(t *testing.T) {
	h, _, _, clock, _ := newTestHost(t)
	ctx := context.Background()

	clock.Advance(90 * time.Second)
	err := h.Invoke(ctx, "noop", func(ctx context.Context, inv *Invocation) error {
		assert.Equal(t, uint64(1_700_000_090), inv.Timestamp)
		return nil
	})
	require.NoError(t, err)
}

func TestRequireAuthUsesContextSigners(t *testing.T) {
	h, _, _, _, _ := newTestHost(t)
	ctx := auth.WithSigners(context.Background(), "GOWNER")

	err := h.Invoke(ctx, "check", func(ctx context.Context, inv *Invocation) error {
		require.NoError(t, inv.RequireAuth(ctx, "GOWNER"))
		return inv.RequireAuth(ctx, "GSTRANGER")
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPublishErrorDoesNotFailInvocation(t *testing.T) {
	h, _, sink, _, _ := newTestHost(t)
	sink.err = errors.New("redis down")

	err := h.Invoke(context.Background(), "emit", func(ctx context.Context, inv *Invocation) error {
		return inv.Emit("topic", struct{}{})
	})
	require.NoError(t, err)
	assert.Len(t, sink.published(), 1)
	assert.Equal(t, 1.0, counterValue(t, h.metrics.events.WithLabelValues("topic", "error")))
}

func TestHostsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(store.NewMemoryBackend(), auth.SignerAuthorizer{}, nil, WithRegisterer(reg))
	b := New(store.NewMemoryBackend(), auth.SignerAuthorizer{}, nil, WithRegisterer(reg))
	assert.Same(t, a.metrics.invocations, b.metrics.invocations)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "ok", Reason(nil))
	assert.Equal(t, "not_found", Reason(domain.ErrCollectibleNotFound))
	assert.Equal(t, "external_call_failure", Reason(errors.Join(domain.ErrExternalCall, errors.New("x"))))
	assert.Equal(t, "error", Reason(errors.New("disk")))
}
