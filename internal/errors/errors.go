package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// PaymentValidationError carries the same details as ValidationError but is
// scoped to the payment step.
type PaymentValidationError struct {
	Method  string
	Message string
	Details []ValidationDetail
}

func (e *PaymentValidationError) Error() string {
	return e.Message
}

func NewPaymentValidationError(method, message string, details ...ValidationDetail) *PaymentValidationError {
	return &PaymentValidationError{
		Method:  method,
		Message: message,
		Details: details,
	}
}

func IsPaymentValidationError(err error) (*PaymentValidationError, bool) {
	var pe *PaymentValidationError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// PreconditionMissingError means the wizard cannot start at all; callers
// redirect out instead of rendering an in-wizard error.
type PreconditionMissingError struct {
	Message  string
	Redirect string
}

func (e *PreconditionMissingError) Error() string {
	return e.Message
}

func NewPreconditionMissingError(message, redirect string) *PreconditionMissingError {
	return &PreconditionMissingError{
		Message:  message,
		Redirect: redirect,
	}
}

func IsPreconditionMissingError(err error) (*PreconditionMissingError, bool) {
	var pe *PreconditionMissingError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

type CapacityExceededError struct {
	Message string
	Limit   int
}

func (e *CapacityExceededError) Error() string {
	return e.Message
}

func NewCapacityExceededError(message string, limit int) *CapacityExceededError {
	return &CapacityExceededError{
		Message: message,
		Limit:   limit,
	}
}

func IsCapacityExceededError(err error) (*CapacityExceededError, bool) {
	var ce *CapacityExceededError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	var te *InvalidTransitionError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// TransientError marks failures worth retrying: network errors, 5xx
// responses, an open circuit breaker or an expired deadline.
type TransientError struct {
	Message string
	Timeout bool
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

func NewTransientError(message string, cause error) *TransientError {
	return &TransientError{
		Message: message,
		Cause:   cause,
	}
}

func NewTimeoutError(message string, cause error) *TransientError {
	return &TransientError{
		Message: message,
		Timeout: true,
		Cause:   cause,
	}
}

func IsTransientError(err error) (*TransientError, bool) {
	var te *TransientError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
