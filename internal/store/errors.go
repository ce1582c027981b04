package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailTaken is returned when an email already belongs to another user.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials is returned when email and password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound is returned for an unknown user or a title absent from a watchlist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPresent is returned when a title is already on the watchlist.
	ErrAlreadyPresent = errors.New("already in watchlist")
	// ErrInvalidRating is returned for ratings outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidGenrePreferences is returned for preference keys that are not weather conditions.
	ErrInvalidGenrePreferences = errors.New("invalid genre preferences")
)

// PersistenceError reports a mutation that was applied in memory but could
// not be written to durable storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persist users: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a caller error that left state unchanged.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyPresent) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrInvalidGenrePreferences) ||
		errors.Is(err, ErrInvalidCredentials)
}
