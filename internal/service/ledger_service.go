package service

import (
	"context"
	"fmt"

	"tycoon_ledger/internal/chain"
	"tycoon_ledger/internal/domain"
	"tycoon_ledger/internal/host"
	"tycoon_ledger/internal/logger"
)

// Operation names, used for metrics and logs.
const (
	OpInitialize              = "initialize"
	OpWithdrawFunds           = "withdraw_funds"
	OpGetCollectibleInfo      = "get_collectible_info"
	OpGetCashTierValue        = "get_cash_tier_value"
	OpSetCollectibleInfo      = "set_collectible_info"
	OpSetCashTierValue        = "set_cash_tier_value"
	OpRegisterPlayer          = "register_player"
	OpMintRegistrationVoucher = "mint_registration_voucher"
	OpGetUser                 = "get_user"
	OpGetConfig               = "get_config"
	OpIsRegistered            = "is_registered"
)

// TokenService is the external fungible-token contract.
type TokenService interface {
	Balance(ctx context.Context, token, owner domain.Address) (domain.Amount, error)
	Transfer(ctx context.Context, token, from, to domain.Address, amount domain.Amount) error
}

// RewardIssuer is the external reward system that mints vouchers.
type RewardIssuer interface {
	MintVoucher(ctx context.Context, rewardSystem, recipient domain.Address, amount domain.Amount) (domain.Amount, error)
}

// LedgerService implements the ledger operations. Every operation runs as a
// single host invocation and is applied entirely or not at all.
type LedgerService struct {
	host    *host.Host
	tokens  TokenService
	rewards RewardIssuer
}

// NewLedgerService creates a new ledger service
func NewLedgerService(h *host.Host, tokens TokenService, rewards RewardIssuer) *LedgerService {
	return &LedgerService{
		host:    h,
		tokens:  tokens,
		rewards: rewards,
	}
}

// Initialize stores the configuration once. A second call always fails with
// ErrAlreadyInitialized, before any authorization is checked.
func (s *LedgerService) Initialize(ctx context.Context, primaryToken, stableToken, owner, rewardSystem domain.Address) error {
	return s.host.Invoke(ctx, OpInitialize, func(ctx context.Context, inv *host.Invocation) error {
		initialized, err := inv.State.IsInitialized(ctx)
		if err != nil {
			return err
		}
		if initialized {
			return domain.ErrAlreadyInitialized
		}

		if err := inv.RequireAuth(ctx, owner); err != nil {
			return err
		}
		if primaryToken.IsZero() || stableToken.IsZero() || rewardSystem.IsZero() {
			return fmt.Errorf("%w: token and reward system addresses are required", domain.ErrInvalidInput)
		}
		if primaryToken == stableToken {
			return fmt.Errorf("%w: primary and stable tokens must differ", domain.ErrInvalidInput)
		}

		if err := inv.State.SetOwner(ctx, owner); err != nil {
			return err
		}
		if err := inv.State.SetPrimaryToken(ctx, primaryToken); err != nil {
			return err
		}
		if err := inv.State.SetStableToken(ctx, stableToken); err != nil {
			return err
		}
		if err := inv.State.SetRewardSystem(ctx, rewardSystem); err != nil {
			return err
		}
		return inv.State.SetInitialized(ctx)
	})
}

// requireOwner authorizes the stored owner for the current invocation.
func requireOwner(ctx context.Context, inv *host.Invocation) error {
	owner, err := inv.State.Owner(ctx)
	if err != nil {
		return err
	}
	return inv.RequireAuth(ctx, owner)
}

// WithdrawFunds moves amount of a treasury token to destination and emits
// funds_withdrawn. The balance check happens before the transfer, and the
// event is published only once the transfer succeeded and the invocation
// committed.
func (s *LedgerService) WithdrawFunds(ctx context.Context, token, destination domain.Address, amount domain.Amount) error {
	return s.host.Invoke(ctx, OpWithdrawFunds, func(ctx context.Context, inv *host.Invocation) error {
		if err := requireOwner(ctx, inv); err != nil {
			return err
		}

		cfg, err := inv.State.Config(ctx)
		if err != nil {
			return err
		}
		if !cfg.IsTreasuryToken(token) {
			return domain.ErrInvalidToken
		}
		if destination.IsZero() {
			return fmt.Errorf("%w: destination is required", domain.ErrInvalidInput)
		}

		balance, err := s.tokens.Balance(ctx, token, inv.Self)
		if err != nil {
			return fmt.Errorf("%w: balance of %s: %w", domain.ErrExternalCall, token, err)
		}
		if balance.Cmp(amount) < 0 {
			return domain.ErrInsufficientBalance
		}

		if err := s.tokens.Transfer(ctx, token, inv.Self, destination, amount); err != nil {
			return fmt.Errorf("%w: transfer %s: %w", domain.ErrExternalCall, token, err)
		}

		logger.Info("treasury withdrawal",
			"token", token.String(),
			"to", destination.String(),
			"amount", chain.FormatAmount(amount),
		)
		return inv.Emit(domain.TopicFundsWithdrawn, domain.FundsWithdrawn{
			Token:  token,
			To:     destination,
			Amount: amount,
		})
	})
}

// GetCollectibleInfo returns the stored collectible or ErrCollectibleNotFound.
func (s *LedgerService) GetCollectibleInfo(ctx context.Context, id domain.ItemID) (domain.Collectible, error) {
	var out domain.Collectible
	err := s.host.Invoke(ctx, OpGetCollectibleInfo, func(ctx context.Context, inv *host.Invocation) error {
		c, ok, err := inv.State.Collectible(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrCollectibleNotFound
		}
		out = c
		return nil
	})
	return out, err
}

// GetCashTierValue returns the stored tier value or ErrCashTierNotFound.
func (s *LedgerService) GetCashTierValue(ctx context.Context, tier uint32) (domain.Amount, error) {
	var out domain.Amount
	err := s.host.Invoke(ctx, OpGetCashTierValue, func(ctx context.Context, inv *host.Invocation) error {
		v, ok, err := inv.State.CashTier(ctx, tier)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrCashTierNotFound
		}
		out = v
		return nil
	})
	return out, err
}

// SetCollectibleInfo replaces the whole collectible record.
func (s *LedgerService) SetCollectibleInfo(ctx context.Context, id domain.ItemID, c domain.Collectible) error {
	return s.host.Invoke(ctx, OpSetCollectibleInfo, func(ctx context.Context, inv *host.Invocation) error {
		if err := requireOwner(ctx, inv); err != nil {
			return err
		}
		return inv.State.SetCollectible(ctx, id, c)
	})
}

func (s *LedgerService) SetCashTierValue(ctx context.Context, tier uint32, value domain.Amount) error {
	return s.host.Invoke(ctx, OpSetCashTierValue, func(ctx context.Context, inv *host.Invocation) error {
		if err := requireOwner(ctx, inv); err != nil {
			return err
		}
		return inv.State.SetCashTier(ctx, tier, value)
	})
}

// RegisterPlayer creates the caller's profile. The user id is the ledger
// sequence of the registering invocation, so it is not unique across
// invocations that share a sequence.
func (s *LedgerService) RegisterPlayer(ctx context.Context, username string, caller domain.Address) (domain.User, error) {
	var out domain.User
	err := s.host.Invoke(ctx, OpRegisterPlayer, func(ctx context.Context, inv *host.Invocation) error {
		if err := inv.RequireAuth(ctx, caller); err != nil {
			return err
		}

		registered, err := inv.State.IsRegistered(ctx, caller)
		if err != nil {
			return err
		}
		if registered {
			return domain.ErrAlreadyRegistered
		}
		if err := domain.ValidateUsername(username); err != nil {
			return err
		}

		u := domain.User{
			ID:           uint64(inv.Sequence),
			Username:     username,
			Address:      caller,
			RegisteredAt: inv.Timestamp,
		}
		if err := inv.State.SetUser(ctx, caller, u); err != nil {
			return err
		}
		if err := inv.State.SetRegistered(ctx, caller); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// MintRegistrationVoucher asks the reward system to mint the fixed
// registration voucher for player. The returned voucher id is discarded.
func (s *LedgerService) MintRegistrationVoucher(ctx context.Context, player domain.Address) error {
	return s.host.Invoke(ctx, OpMintRegistrationVoucher, func(ctx context.Context, inv *host.Invocation) error {
		if err := requireOwner(ctx, inv); err != nil {
			return err
		}
		rewardSystem, err := inv.State.RewardSystem(ctx)
		if err != nil {
			return err
		}
		if player.IsZero() {
			return fmt.Errorf("%w: player is required", domain.ErrInvalidInput)
		}

		if _, err := s.rewards.MintVoucher(ctx, rewardSystem, player, chain.RegistrationVoucherAmount); err != nil {
			return fmt.Errorf("%w: mint voucher: %w", domain.ErrExternalCall, err)
		}
		return nil
	})
}

// GetUser returns the user registered at addr; ok is false if there is none.
func (s *LedgerService) GetUser(ctx context.Context, addr domain.Address) (u domain.User, ok bool, err error) {
	err = s.host.Invoke(ctx, OpGetUser, func(ctx context.Context, inv *host.Invocation) error {
		var err error
		u, ok, err = inv.State.User(ctx, addr)
		return err
	})
	return u, ok, err
}

// GetConfig returns the stored configuration, or ErrNotInitialized.
func (s *LedgerService) GetConfig(ctx context.Context) (domain.LedgerConfig, error) {
	var out domain.LedgerConfig
	err := s.host.Invoke(ctx, OpGetConfig, func(ctx context.Context, inv *host.Invocation) error {
		cfg, err := inv.State.Config(ctx)
		out = cfg
		return err
	})
	return out, err
}

func (s *LedgerService) IsRegistered(ctx context.Context, addr domain.Address) (bool, error) {
	var out bool
	err := s.host.Invoke(ctx, OpIsRegistered, func(ctx context.Context, inv *host.Invocation) error {
		var err error
		out, err = inv.State.IsRegistered(ctx, addr)
		return err
	})
	return out, err
}
