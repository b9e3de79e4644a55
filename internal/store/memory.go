package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps state in process memory. It is the development
// backend and the one tests run against.
type MemoryBackend struct {
	mu   sync.Mutex // held for the lifetime of a transaction
	data map[Tier]map[string][]byte
	seq  uint32
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: map[Tier]map[string][]byte{
			TierInstance:   {},
			TierPersistent: {},
		},
	}
}

func (b *MemoryBackend) Begin(ctx context.Context) (Txn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.seq++
	return &memoryTxn{
		backend: b,
		seq:     b.seq,
		staged:  make(map[Key][]byte),
	}, nil
}

func (b *MemoryBackend) Ping(ctx context.Context) error { return ctx.Err() }

func (b *MemoryBackend) Close() error { return nil }

// Len reports how many keys are committed in tier.
func (b *MemoryBackend) Len(tier Tier) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data[tier])
}

type memoryTxn struct {
	backend *MemoryBackend
	seq     uint32
	staged  map[Key][]byte
	done    bool
}

func (t *memoryTxn) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	if v, ok := t.staged[key]; ok {
		return clone(v), true, nil
	}
	v, ok := t.backend.data[key.Tier()][key.String()]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (t *memoryTxn) Set(ctx context.Context, key Key, value []byte) error {
	if t.done {
		return ErrTxDone
	}
	t.staged[key] = clone(value)
	return nil
}

func (t *memoryTxn) Sequence() uint32 { return t.seq }

func (t *memoryTxn) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	for k, v := range t.staged {
		t.backend.data[k.Tier()][k.String()] = v
	}
	t.finish()
	return nil
}

func (t *memoryTxn) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *memoryTxn) finish() {
	t.done = true
	t.staged = nil
	t.backend.mu.Unlock()
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
