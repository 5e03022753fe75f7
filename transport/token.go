package transport

import (
	"regexp"

	"github.com/go-faster/errors"
)

// InvalidTokenError reports a bot token that doesn't match the
// "<bot_id>:<secret>" shape tokenPattern checks: at least 5 digits, a colon,
// then at least 30 letters, digits, '_' or '-' (spec.md §7).
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string {
	return "invalid bot token: " + e.Reason
}

var tokenPattern = regexp.MustCompile(`^[0-9]{5,}:[A-Za-z0-9_-]{30,}$`)

// Token is a validated bot token string.
type Token string

// ParseToken validates raw against the expected Bot API token shape.
func ParseToken(raw string) (Token, error) {
	if raw == "" {
		return "", &InvalidTokenError{Reason: "empty"}
	}
	if !tokenPattern.MatchString(raw) {
		return "", &InvalidTokenError{Reason: "does not match <id>:<secret> shape"}
	}
	return Token(raw), nil
}

// MustParseToken panics on an invalid token; only meant for process startup
// where an invalid token is a fatal configuration error.
func MustParseToken(raw string) Token {
	t, err := ParseToken(raw)
	if err != nil {
		panic(errors.Wrap(err, "MustParseToken"))
	}
	return t
}
