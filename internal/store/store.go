// Package store is the keyed ledger state: a two-tier key/value store with
// typed accessors on top.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tycoon_ledger/internal/domain"
)

var ErrTxDone = errors.New("store: transaction already committed or rolled back")

// Backend opens serialized transactions. At most one transaction per backend
// is open at a time; Begin blocks until the previous one finishes.
type Backend interface {
	Begin(ctx context.Context) (Txn, error)
	Ping(ctx context.Context) error
	Close() error
}

// Txn stages writes until Commit. Rollback after Commit is a no-op so callers
// can always defer it.
type Txn interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Set(ctx context.Context, key Key, value []byte) error
	// Sequence is the ledger sequence number assigned to this transaction.
	Sequence() uint32
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// State exposes typed reads and writes over one transaction.
type State struct {
	txn Txn
}

func NewState(txn Txn) *State {
	return &State{txn: txn}
}

func get[T any](ctx context.Context, txn Txn, key Key) (T, bool, error) {
	var v T
	raw, ok, err := txn.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

func getOrDefault[T any](ctx context.Context, txn Txn, key Key, def T) (T, error) {
	v, ok, err := get[T](ctx, txn, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// getRequired is for configuration fields that exist after initialize.
func getRequired[T any](ctx context.Context, txn Txn, key Key) (T, error) {
	v, ok, err := get[T](ctx, txn, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%w: %s is not set", domain.ErrNotInitialized, key)
	}
	return v, nil
}

func set[T any](ctx context.Context, txn Txn, key Key, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set(ctx, key, raw)
}

// Sequence is the ledger sequence of the underlying transaction.
func (s *State) Sequence() uint32 {
	return s.txn.Sequence()
}

func (s *State) IsInitialized(ctx context.Context) (bool, error) {
	return getOrDefault(ctx, s.txn, InitializedKey(), false)
}

func (s *State) SetInitialized(ctx context.Context) error {
	return set(ctx, s.txn, InitializedKey(), true)
}

func (s *State) Owner(ctx context.Context) (domain.Address, error) {
	return getRequired[domain.Address](ctx, s.txn, OwnerKey())
}

func (s *State) SetOwner(ctx context.Context, owner domain.Address) error {
	return set(ctx, s.txn, OwnerKey(), owner)
}

func (s *State) PrimaryToken(ctx context.Context) (domain.Address, error) {
	return getRequired[domain.Address](ctx, s.txn, PrimaryTokenKey())
}

func (s *State) SetPrimaryToken(ctx context.Context, token domain.Address) error {
	return set(ctx, s.txn, PrimaryTokenKey(), token)
}

func (s *State) StableToken(ctx context.Context) (domain.Address, error) {
	return getRequired[domain.Address](ctx, s.txn, StableTokenKey())
}

func (s *State) SetStableToken(ctx context.Context, token domain.Address) error {
	return set(ctx, s.txn, StableTokenKey(), token)
}

func (s *State) RewardSystem(ctx context.Context) (domain.Address, error) {
	return getRequired[domain.Address](ctx, s.txn, RewardSystemKey())
}

func (s *State) SetRewardSystem(ctx context.Context, addr domain.Address) error {
	return set(ctx, s.txn, RewardSystemKey(), addr)
}

// Config loads every configuration field, failing with ErrNotInitialized if
// any is missing.
func (s *State) Config(ctx context.Context) (domain.LedgerConfig, error) {
	var (
		cfg domain.LedgerConfig
		err error
	)
	if cfg.Owner, err = s.Owner(ctx); err != nil {
		return cfg, err
	}
	if cfg.PrimaryToken, err = s.PrimaryToken(ctx); err != nil {
		return cfg, err
	}
	if cfg.StableToken, err = s.StableToken(ctx); err != nil {
		return cfg, err
	}
	if cfg.RewardSystem, err = s.RewardSystem(ctx); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *State) Collectible(ctx context.Context, id domain.ItemID) (domain.Collectible, bool, error) {
	return get[domain.Collectible](ctx, s.txn, CollectibleKey(id))
}

func (s *State) SetCollectible(ctx context.Context, id domain.ItemID, c domain.Collectible) error {
	return set(ctx, s.txn, CollectibleKey(id), c)
}

func (s *State) CashTier(ctx context.Context, tier uint32) (domain.Amount, bool, error) {
	return get[domain.Amount](ctx, s.txn, CashTierKey(tier))
}

func (s *State) SetCashTier(ctx context.Context, tier uint32, value domain.Amount) error {
	return set(ctx, s.txn, CashTierKey(tier), value)
}

func (s *State) IsRegistered(ctx context.Context, addr domain.Address) (bool, error) {
	return getOrDefault(ctx, s.txn, RegisteredKey(addr), false)
}

func (s *State) SetRegistered(ctx context.Context, addr domain.Address) error {
	return set(ctx, s.txn, RegisteredKey(addr), true)
}

func (s *State) User(ctx context.Context, addr domain.Address) (domain.User, bool, error) {
	return get[domain.User](ctx, s.txn, UserKey(addr))
}

func (s *State) SetUser(ctx context.Context, addr domain.Address, u domain.User) error {
	return set(ctx, s.txn, UserKey(addr), u)
}
