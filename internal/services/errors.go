package services

import (
	"errors"
	"fmt"
)

// ValidationError reports a bad checkout field before any network
// call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	// ErrOrderCreation wraps a repository write failure during
	// checkout; the submission is aborted.
	ErrOrderCreation = errors.New("order creation failed")

	// ErrChargeInitiation wraps a gateway rejection or transport
	// failure when initiating a charge; the order stays pending.
	ErrChargeInitiation = errors.New("charge initiation failed")

	ErrSessionNotFound = errors.New("payment session not found")
	ErrEmptyCart       = errors.New("cart is empty")
)
