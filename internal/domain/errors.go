package domain

import (
	"errors"
	"fmt"
)

// Every error aborts the invocation that produced it; the host rolls back
// whatever the invocation wrote before failing.
var (
	ErrAlreadyInitialized  = errors.New("contract already initialized")
	ErrNotInitialized      = errors.New("contract not initialized")
	ErrInvalidToken        = errors.New("invalid token address")
	ErrInsufficientBalance = errors.New("insufficient contract balance")
	ErrNotFound            = errors.New("not found")
	ErrInvalidUsername     = errors.New("username must be 3-20 characters")
	ErrAlreadyRegistered   = errors.New("address already registered")
	ErrUnauthorized        = errors.New("authorization failed")
	ErrExternalCall        = errors.New("external call failed")
	ErrInvalidInput        = errors.New("invalid input")

	ErrCollectibleNotFound = fmt.Errorf("collectible does not exist: %w", ErrNotFound)
	ErrCashTierNotFound    = fmt.Errorf("cash tier does not exist: %w", ErrNotFound)
)
