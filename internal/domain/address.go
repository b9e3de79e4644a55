package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxAddressLength bounds identity strings accepted from callers.
const MaxAddressLength = 128

// Address identifies an account, token or contract on the ledger.
type Address string

// ParseAddress trims s and rejects empty, oversized or non-printable identities.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if len(s) > MaxAddressLength {
		return "", fmt.Errorf("%w: address longer than %d bytes", ErrInvalidInput, MaxAddressLength)
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", fmt.Errorf("%w: address contains invalid character %q", ErrInvalidInput, r)
		}
	}
	return Address(s), nil
}

func (a Address) String() string {
	return string(a)
}

// IsZero reports whether a is unset.
func (a Address) IsZero() bool {
	return a == ""
}
