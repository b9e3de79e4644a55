package handlers

import (
	"tycoon_ledger/internal/service"
)

type Handler struct {
	Ledger *service.LedgerService
}

func NewHandler(ledger *service.LedgerService) *Handler {
	return &Handler{Ledger: ledger}
}
