package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Domain errors surfaced by the booking, order and archival flows.
// Handlers map these to HTTP statuses; everything else is wrapped as an
// internal error.
var (
	// ErrJourneyNotFound means the referenced journey no longer exists
	// in the live catalog (stale reference, or already archived).
	ErrJourneyNotFound = errors.New("journey not found")

	// ErrInvalidSelection means the seat selection was empty, out of
	// range or contained duplicates. Caller bug, reject immediately.
	ErrInvalidSelection = errors.New("invalid seat selection")

	// ErrOrderNotFound means the referenced payment order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrPaymentVerificationFailed means the gateway callback signature
	// or payment identifiers did not check out. The order must not be
	// finalized.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")

	// ErrCommitTimeout means the store did not answer within the commit
	// deadline. Retryable by the caller; distinct from a seat conflict.
	ErrCommitTimeout = errors.New("booking commit timed out")

	// ErrBookingNotFound means the referenced booking does not exist or
	// belongs to another user.
	ErrBookingNotFound = errors.New("booking not found")
)

// SeatConflictError reports which requested seats were no longer
// available at commit time. The commit applies no changes.
type SeatConflictError struct {
	JourneyID uuid.UUID
	Indexes   []int
}

func (e *SeatConflictError) Error() string {
	idx := make([]int, len(e.Indexes))
	copy(idx, e.Indexes)
	sort.Ints(idx)
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("seats no longer available: [%s]", strings.Join(parts, ", "))
}

// PricingError reports a malformed price configuration on a journey.
// Fatal for that journey until an administrator fixes it.
type PricingError struct {
	JourneyID uuid.UUID
	RawPrice  string
	Reason    string
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("journey %s: %s (got %q)", e.JourneyID, e.Reason, e.RawPrice)
}

// ValidationError is a request-level validation failure surfaced as a
// 400 by handlers.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
