package domain

import (
	"errors"
	"fmt"
)

// Validation failures.
var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidDateCount   = errors.New("invalid_date_count")
	ErrDuplicateDate      = errors.New("duplicate_date")
	ErrDateOutOfWindow    = errors.New("date_out_of_window")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidEntryStatus = errors.New("invalid_entry_status")
	ErrInvalidAddress     = errors.New("invalid_address")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrOrderMismatch      = errors.New("order_mismatch")
	ErrInvalidAmount      = errors.New("invalid_amount")
)

// Lookup failures.
var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrEntryNotFound        = errors.New("schedule_entry_not_found")
	ErrSaladNotFound        = errors.New("salad_not_found")
)

// Business-rule collisions.
var (
	ErrActiveSubscriptionExists = errors.New("active_subscription_exists")
	ErrDateAlreadyScheduled     = errors.New("date_already_scheduled")
	ErrConcurrentModification   = errors.New("concurrent_modification")
	ErrConfirmationInProgress   = errors.New("confirmation_in_progress")
)

var (
	ErrNotActive  = errors.New("subscription_not_active")
	ErrNotPending = errors.New("subscription_not_pending")
)

var ErrCutoffPassed = errors.New("cutoff_passed")

var ErrNotOwned = errors.New("subscription_not_owned")

// RuleError attaches the offending field and a caller-facing message to a
// sentinel. errors.Is matches the sentinel.
type RuleError struct {
	Err     error
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *RuleError) Unwrap() error { return e.Err }

func ruleError(err error, field, format string, args ...any) error {
	return &RuleError{Err: err, Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsRuleError extracts the rule detail from err, if any.
func AsRuleError(err error) (*RuleError, bool) {
	var rErr *RuleError
	if errors.As(err, &rErr) && rErr != nil {
		return rErr, true
	}
	return nil, false
}

func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest, ErrInvalidID, ErrInvalidDateCount, ErrDuplicateDate,
		ErrDateOutOfWindow, ErrInvalidStatus, ErrInvalidEntryStatus,
		ErrInvalidAddress, ErrInvalidSignature, ErrOrderMismatch, ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrSaladNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrActiveSubscriptionExists) ||
		errors.Is(err, ErrDateAlreadyScheduled) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrConfirmationInProgress)
}

func IsInvalidState(err error) bool {
	return errors.Is(err, ErrNotActive) || errors.Is(err, ErrNotPending)
}
