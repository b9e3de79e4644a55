// Package auth answers "did the caller authorize as identity X".
package auth

import (
	"context"
	"fmt"

	"tycoon_ledger/internal/domain"
)

// Authorizer verifies that the current call was authorized by addr.
type Authorizer interface {
	RequireAuth(ctx context.Context, addr domain.Address) error
}

type signersKey struct{}

// WithSigners attaches the identities that authorized the current call.
func WithSigners(ctx context.Context, signers ...domain.Address) context.Context {
	existing := Signers(ctx)
	merged := make([]domain.Address, 0, len(existing)+len(signers))
	merged = append(merged, existing...)
	merged = append(merged, signers...)
	return context.WithValue(ctx, signersKey{}, merged)
}

// Signers returns the identities attached to ctx.
func Signers(ctx context.Context) []domain.Address {
	s, _ := ctx.Value(signersKey{}).([]domain.Address)
	return s
}

// SignerAuthorizer accepts addr if it is one of the context's signers.
type SignerAuthorizer struct{}

func (SignerAuthorizer) RequireAuth(ctx context.Context, addr domain.Address) error {
	if addr.IsZero() {
		return fmt.Errorf("%w: empty identity", domain.ErrUnauthorized)
	}
	for _, s := range Signers(ctx) {
		if s == addr {
			return nil
		}
	}
	return fmt.Errorf("%w: %s did not authorize this call", domain.ErrUnauthorized, addr)
}
