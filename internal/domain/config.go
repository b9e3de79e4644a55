package domain

// LedgerConfig is the singleton configuration written by initialize.
type LedgerConfig struct {
	Owner        Address `json:"owner"`
	PrimaryToken Address `json:"primary_token"`
	StableToken  Address `json:"stable_token"`
	RewardSystem Address `json:"reward_system"`
}

// IsTreasuryToken reports whether token is one of the two custodied tokens.
func (c LedgerConfig) IsTreasuryToken(token Address) bool {
	return token == c.PrimaryToken || token == c.StableToken
}
