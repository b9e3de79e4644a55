package store

import (
	"strconv"

	"tycoon_ledger/internal/domain"
)

// Tier selects the persistence class a key lives in. Instance keys are the
// small singleton configuration; persistent keys scale with entity count.
type Tier uint8

const (
	TierInstance Tier = iota + 1
	TierPersistent
)

func (t Tier) String() string {
	switch t {
	case TierInstance:
		return "instance"
	case TierPersistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// Kind names a key variant.
type Kind string

const (
	KindOwner        Kind = "owner"
	KindPrimaryToken Kind = "primary_token"
	KindStableToken  Kind = "stable_token"
	KindInitialized  Kind = "initialized"
	KindRewardSystem Kind = "reward_system"
	KindCollectible  Kind = "collectible"
	KindCashTier     Kind = "cash_tier"
	KindUser         Kind = "user"
	KindRegistered   Kind = "registered"
)

// Key addresses one stored value. Keys can only be built through the
// constructors below, so the key space is closed.
type Key struct {
	tier Tier
	kind Kind
	id   string
}

func (k Key) Tier() Tier { return k.tier }
func (k Key) Kind() Kind { return k.kind }

// String is the encoded form used by SQL backends, e.g. "collectible:42".
func (k Key) String() string {
	if k.id == "" {
		return string(k.kind)
	}
	return string(k.kind) + ":" + k.id
}

func OwnerKey() Key        { return Key{tier: TierInstance, kind: KindOwner} }
func PrimaryTokenKey() Key { return Key{tier: TierInstance, kind: KindPrimaryToken} }
func StableTokenKey() Key  { return Key{tier: TierInstance, kind: KindStableToken} }
func InitializedKey() Key  { return Key{tier: TierInstance, kind: KindInitialized} }
func RewardSystemKey() Key { return Key{tier: TierInstance, kind: KindRewardSystem} }

func CollectibleKey(id domain.ItemID) Key {
	return Key{tier: TierPersistent, kind: KindCollectible, id: id.String()}
}

func CashTierKey(tier uint32) Key {
	return Key{tier: TierPersistent, kind: KindCashTier, id: strconv.FormatUint(uint64(tier), 10)}
}

func UserKey(addr domain.Address) Key {
	return Key{tier: TierPersistent, kind: KindUser, id: addr.String()}
}

func RegisteredKey(addr domain.Address) Key {
	return Key{tier: TierPersistent, kind: KindRegistered, id: addr.String()}
}
