package models

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to callers. Repository and service code wraps
// these with %w so boundaries can match with errors.Is.
var (
	ErrCardNotFound        = errors.New("card not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCardDeleted         = errors.New("card is deleted")
	ErrCardExpired         = errors.New("card is expired")
	ErrCardBlocked         = errors.New("card is blocked")
	ErrAccessDenied        = errors.New("access denied")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be a positive value with at most two decimal places")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// CardStateError wraps one of the card state sentinels together with the
// masked number of the offending card.
type CardStateError struct {
	Err    error
	Number string
}

func (e *CardStateError) Error() string {
	if e.Number == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("card %s: %v", e.Number, e.Err)
}

func (e *CardStateError) Unwrap() error {
	return e.Err
}
