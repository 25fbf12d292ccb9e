package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_Creation(t *testing.T) {
	message := "order not found"
	err := NewNotFoundError(message)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
}

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("test not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "test not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestNotFoundError_ErrorInterface(t *testing.T) {
	var err error = NewNotFoundError("entity not found")
	assert.NotNil(t, err)
	assert.Equal(t, "entity not found", err.Error())
}

func TestNotFoundError_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading item: %w", NewNotFoundError("tour 7 not found"))

	nfe, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, "tour 7 not found", nfe.Message)
}

func TestValidationError_Creation(t *testing.T) {
	message := "validation failed"
	details := []ValidationDetail{
		{Field: "email", Message: "invalid email"},
		{Field: "name", Message: "required field"},
	}

	err := NewValidationError(message, details...)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
	assert.Len(t, err.Details, 2)
}

func TestInternalError_Creation(t *testing.T) {
	cause := errors.New("database error")
	err := NewInternalError("failed to query database", cause)

	assert.NotNil(t, err)
	assert.Equal(t, "failed to query database", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "failed to query database")
	assert.Contains(t, err.Error(), "database error")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestPaymentValidationError_IsDistinctFromValidationError(t *testing.T) {
	err := NewPaymentValidationError("credit_card", "payment validation failed", ValidationDetail{
		Field:   "cardNumber",
		Message: "card number must have 16 digits",
	})

	pe, ok := IsPaymentValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "credit_card", pe.Method)
	assert.Len(t, pe.Details, 1)

	_, ok = IsValidationError(err)
	assert.False(t, ok)
}

func TestPreconditionMissingError_CarriesRedirect(t *testing.T) {
	err := NewPreconditionMissingError("no item to book", "/tours")

	pe, ok := IsPreconditionMissingError(err)
	assert.True(t, ok)
	assert.Equal(t, "/tours", pe.Redirect)
	assert.Equal(t, "no item to book", err.Error())
}

func TestCapacityExceededError_Creation(t *testing.T) {
	err := NewCapacityExceededError("maximum 10 travelers per flight booking", 10)

	ce, ok := IsCapacityExceededError(err)
	assert.True(t, ok)
	assert.Equal(t, 10, ce.Limit)
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := NewInvalidTransitionError("succeeded", "payment")

	assert.Equal(t, "invalid transition: succeeded -> payment", err.Error())
	_, ok := IsInvalidTransitionError(err)
	assert.True(t, ok)
}

func TestTransientError_TimeoutAndUnwrap(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := NewTimeoutError("booking request timed out", cause)

	te, ok := IsTransientError(err)
	assert.True(t, ok)
	assert.True(t, te.Timeout)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "booking request timed out")
}

func TestConflictError_WithOtherError(t *testing.T) {
	ce, ok := IsConflictError(errors.New("boom"))
	assert.False(t, ok)
	assert.Nil(t, ce)
}
