package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewQuotaExceeded signals the free-tier report limit was hit.
func NewQuotaExceeded(limit int) error {
	return NewDomainError("QUOTA_EXCEEDED",
		fmt.Sprintf("free accounts may report at most %d issues; subscribe to premium for unlimited reporting", limit),
		http.StatusForbidden, map[string]any{"limit": limit})
}

// NewInvalidTransition signals a status change outside the transition table,
// or one that lost a compare-and-set race against the persisted status.
func NewInvalidTransition(from, to string) error {
	return NewDomainError("INVALID_TRANSITION",
		fmt.Sprintf("cannot change status from %s to %s", from, to),
		http.StatusConflict, map[string]any{"from": from, "to": to})
}

// NewInvalidState signals an operation attempted outside the status that
// permits it (for example editing an issue that has left Pending).
func NewInvalidState(message string) error {
	return NewDomainError("INVALID_STATE", message, http.StatusConflict, nil)
}

// NewSelfVote signals a reporter trying to upvote their own issue.
func NewSelfVote() error {
	return NewDomainError("SELF_VOTE", "you cannot upvote your own issue", http.StatusBadRequest, nil)
}

// NewPaymentSessionMismatch signals a checkout session confirmed against a
// resource it was not created for.
func NewPaymentSessionMismatch() error {
	return NewDomainError("PAYMENT_SESSION_MISMATCH", "payment session does not belong to this resource", http.StatusBadRequest, nil)
}

// NewPaymentNotCompleted signals confirmation of a session the provider has
// not marked complete. Safe to retry once the payment settles.
func NewPaymentNotCompleted() error {
	return NewDomainError("PAYMENT_NOT_COMPLETED", "payment session is not completed", http.StatusConflict, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
