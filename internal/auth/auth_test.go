package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tycoon_ledger/internal/domain"
)

func TestSignerAuthorizer(t *testing.T) {
	var a SignerAuthorizer
	ctx := context.Background()

	assert.ErrorIs(t, a.RequireAuth(ctx, "GOWNER"), domain.ErrUnauthorized)

	ctx = WithSigners(ctx, "GOWNER")
	assert.NoError(t, a.RequireAuth(ctx, "GOWNER"))
	assert.ErrorIs(t, a.RequireAuth(ctx, "GOTHER"), domain.ErrUnauthorized)
	assert.ErrorIs(t, a.RequireAuth(ctx, ""), domain.ErrUnauthorized)

	ctx = WithSigners(ctx, "GOTHER")
	assert.NoError(t, a.RequireAuth(ctx, "GOTHER"))
	assert.Equal(t, []domain.Address{"GOWNER", "GOTHER"}, Signers(ctx))
}

func TestIssuerRoundTrip(t *testing.T) {
	iss, err := NewIssuer("secret")
	require.NoError(t, err)

	tok, err := iss.Issue("GOWNER", time.Hour)
	require.NoError(t, err)

	addr, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Address("GOWNER"), addr)
}

func TestIssuerRejects(t *testing.T) {
	iss, err := NewIssuer("secret")
	require.NoError(t, err)
	other, err := NewIssuer("other-secret")
	require.NoError(t, err)

	foreign, err := other.Issue("GOWNER", time.Hour)
	require.NoError(t, err)
	_, err = iss.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := iss.Issue("GOWNER", -time.Minute)
	require.NoError(t, err)
	_, err = iss.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "GOWNER",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Issue("", time.Hour)
	assert.Error(t, err)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("")
	assert.ErrorIs(t, err, ErrNoSecret)
}
