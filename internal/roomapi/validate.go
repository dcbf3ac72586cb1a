package roomapi

import (
	"errors"
	"regexp"
	"strings"
)

// Validation errors. These are rejected before any network call and surfaced
// inline; they never reach the server.
var (
	ErrNameRequired  = errors.New("player name is required")
	ErrNameTooShort  = errors.New("player name must be at least 2 characters")
	ErrNameTooLong   = errors.New("player name must be at most 20 characters")
	ErrNameBadChars  = errors.New("player name contains invalid characters")
	ErrCodeRequired  = errors.New("room code is required")
	ErrCodeBadLength = errors.New("room code must be exactly 8 characters")
	ErrCodeBadChars  = errors.New("room code must be letters and digits only")
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9 \-_.]+$`)
	codePattern = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// ValidatePlayerName trims and checks a display name, returning the cleaned
// value.
func ValidatePlayerName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", ErrNameRequired
	}
	if len(clean) < 2 {
		return "", ErrNameTooShort
	}
	if len(clean) > 20 {
		return "", ErrNameTooLong
	}
	if !namePattern.MatchString(clean) {
		return "", ErrNameBadChars
	}
	return clean, nil
}

// ValidateRoomCode normalizes (trim + upcase) and checks a room code:
// exactly 8 uppercase alphanumerics.
func ValidateRoomCode(code string) (string, error) {
	clean := strings.ToUpper(strings.TrimSpace(code))
	if clean == "" {
		return "", ErrCodeRequired
	}
	if len(clean) != 8 {
		return "", ErrCodeBadLength
	}
	if !codePattern.MatchString(clean) {
		return "", ErrCodeBadChars
	}
	return clean, nil
}
