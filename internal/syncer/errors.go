package syncer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any I/O when a caller-supplied
	// identifier is missing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStateUnavailable means the provider's season/week cursor could not
	// be read. Every status calculation depends on it.
	ErrStateUnavailable = errors.New("issue fetching NFL state")
	// ErrNoLeagues means the user has no leagues for the current season
	ErrNoLeagues = errors.New("no leagues found for this user")
	// ErrPlayersUnavailable means the first player load got nothing back
	ErrPlayersUnavailable = errors.New("initial player load failed: no data from Sleeper and no existing records")
)

// UsernameNotFoundError is returned when Sleeper has no user by that name
type UsernameNotFoundError struct {
	Username string
}

func (e *UsernameNotFoundError) Error() string {
	return fmt.Sprintf("Sleeper username not found: %s", e.Username)
}

// Code classifies a failed run for callers
type Code string

const (
	CodeInvalidUsername Code = "INVALID_USERNAME"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeUnexpected      Code = "UNEXPECTED_ERROR"
)

// Classify maps an error to its caller-facing code
func Classify(err error) Code {
	var notFound *UsernameNotFoundError
	switch {
	case errors.As(err, &notFound):
		return CodeInvalidUsername
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeUnexpected
	}
}
