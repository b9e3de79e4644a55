package domain

// Event topics emitted by ledger operations.
const (
	TopicFundsWithdrawn = "funds_withdrawn"
)

// FundsWithdrawn is emitted after a treasury transfer succeeds.
type FundsWithdrawn struct {
	Token  Address `json:"token"`
	To     Address `json:"to"`
	Amount Amount  `json:"amount"`
}
