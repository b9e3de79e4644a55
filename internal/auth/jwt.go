package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tycoon_ledger/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("JWT secret is not set")
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 24 * time.Hour

// Issuer signs and verifies HS256 tokens whose subject is a ledger address.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue returns a token for addr valid for ttl.
func (i *Issuer) Issue(addr domain.Address, ttl time.Duration) (string, error) {
	if addr.IsZero() {
		return "", errors.New("address is required")
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   addr.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates tokenString and returns its subject address.
func (i *Issuer) Parse(tokenString string) (domain.Address, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	addr, err := domain.ParseAddress(claims.Subject)
	if err != nil {
		return "", ErrInvalidToken
	}
	return addr, nil
}
