package domain

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// User is the player profile written once by registration. GamesPlayed and
// GamesWon belong to the game-session system and start at zero.
type User struct {
	ID           uint64  `json:"id"`
	Username     string  `json:"username"`
	Address      Address `json:"address"`
	RegisteredAt uint64  `json:"registered_at"`
	GamesPlayed  uint32  `json:"games_played"`
	GamesWon     uint32  `json:"games_won"`
}

// ValidateUsername checks the length bounds, counted in characters, and
// rejects control characters.
func ValidateUsername(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: not valid utf-8", ErrInvalidUsername)
	}
	n := utf8.RuneCountInString(name)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return ErrInvalidUsername
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("%w: contains non-printable character", ErrInvalidUsername)
		}
	}
	return nil
}
