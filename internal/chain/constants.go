package chain

import (
	"time"

	"github.com/shopspring/decimal"

	"tycoon_ledger/internal/domain"
)

const (
	// Decimals is the fixed-point precision of ledger tokens: 1 unit = 10^7 stroops.
	Decimals = 7

	// UnitStroops is one whole token in the smallest denomination.
	UnitStroops = 1_0000000

	// RegistrationVoucherStroops is the voucher minted for a new player: 2 tokens.
	RegistrationVoucherStroops = 2 * UnitStroops

	// MintVoucherFunction is the reward-system entry point invoked for vouchers.
	MintVoucherFunction = "mint_voucher"

	DefaultTimeout = 30 * time.Second
)

// RegistrationVoucherAmount is RegistrationVoucherStroops as an Amount.
var RegistrationVoucherAmount = domain.NewAmount(RegistrationVoucherStroops)

// FormatAmount renders a stroop amount in whole tokens, e.g. 20000000 -> "2.0000000".
func FormatAmount(a domain.Amount) string {
	return decimal.NewFromBigInt(a.Big(), -Decimals).StringFixed(Decimals)
}

// ParseTokens converts a whole-token decimal string into stroops. Extra
// precision beyond Decimals is rejected rather than rounded.
func ParseTokens(s string) (domain.Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return domain.Amount{}, domain.ErrInvalidInput
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return domain.Amount{}, domain.ErrInvalidInput
	}
	return domain.AmountFromBig(scaled.BigInt())
}
