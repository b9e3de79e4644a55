package domain

import (
	"fmt"
	"math"
	"math/big"

	"lukechampine.com/uint128"
)

// Amount is an unsigned 128-bit quantity: prices, tier values, balances.
// It encodes as a decimal string so no JSON number precision is lost.
type Amount struct {
	v uint128.Uint128
}

// ItemID is the 128-bit collectible identifier.
type ItemID Amount

// NewAmount returns an Amount holding n.
func NewAmount(n uint64) Amount {
	return Amount{v: uint128.From64(n)}
}

// MaxAmount is 2^128 - 1.
var MaxAmount = Amount{v: uint128.New(math.MaxUint64, math.MaxUint64)}

// ParseAmount parses a base-10 unsigned integer that fits in 128 bits.
func ParseAmount(s string) (Amount, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q is not a base-10 integer", ErrInvalidInput, s)
	}
	return AmountFromBig(b)
}

// AmountFromBig converts b, rejecting negative values and values wider than 128 bits.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if b.BitLen() > 128 {
		return Amount{}, fmt.Errorf("%w: amount overflows 128 bits", ErrInvalidInput)
	}
	return Amount{v: uint128.FromBig(b)}, nil
}

func (a Amount) String() string {
	return a.v.String()
}

// Big returns a copy of a as a big.Int.
func (a Amount) Big() *big.Int {
	return a.v.Big()
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(b.v)
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseItemID parses a decimal 128-bit item id.
func ParseItemID(s string) (ItemID, error) {
	a, err := ParseAmount(s)
	if err != nil {
		return ItemID{}, err
	}
	return ItemID(a), nil
}

// NewItemID returns an ItemID holding n.
func NewItemID(n uint64) ItemID {
	return ItemID(NewAmount(n))
}

func (id ItemID) String() string {
	return Amount(id).String()
}

func (id ItemID) MarshalText() ([]byte, error) {
	return Amount(id).MarshalText()
}

func (id *ItemID) UnmarshalText(text []byte) error {
	return (*Amount)(id).UnmarshalText(text)
}
