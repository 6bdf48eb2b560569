package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the business-expected failure modes. Handlers translate
// these into HTTP status codes; none of them are retried internally.
var (
	// ErrNotFound covers absent records and cross-tenant lookups alike, so a
	// caller cannot distinguish "does not exist" from "belongs to someone else".
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition is returned for mutations on a closed job and
	// for unrecognized target statuses.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrValidation marks malformed or unacceptable input.
	ErrValidation = errors.New("validation error")
)

// InsufficientStockError aborts an entire repair submission; no inventory is
// mutated when it is returned.
type InsufficientStockError struct {
	ItemID    uint
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ItemName, e.Requested, e.Available)
}

// QuotaExceededError carries the structured denial so the caller can surface
// current/limit numbers verbatim to the end user.
type QuotaExceededError struct {
	Result LimitResult
}

func (e *QuotaExceededError) Error() string {
	return e.Result.Message
}

// FeatureNotAvailableError is returned when the tenant's plan lacks a gated
// capability.
type FeatureNotAvailableError struct {
	Feature  string
	PlanName string
}

func (e *FeatureNotAvailableError) Error() string {
	return fmt.Sprintf("feature %q is not available on the %s plan", e.Feature, e.PlanName)
}
