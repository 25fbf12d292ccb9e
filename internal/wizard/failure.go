package wizard

import (
	"context"
	stderrors "errors"
	"strings"

	apperrors "waypoint/internal/errors"
)

type Category string

const (
	CategoryPaymentFailed   Category = "payment_failed"
	CategoryUnitUnavailable Category = "unit_unavailable"
	CategorySystemError     Category = "system_error"
	CategoryInvalidData     Category = "invalid_data"
	CategoryTimeout         Category = "timeout"
)

// Kind is the error tier the failure came from. Only conflict and transient
// failures may be re-sent unchanged.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindTransient  Kind = "transient"
	KindFatal      Kind = "fatal"
)

type Failure struct {
	Category  Category                     `json:"category"`
	Kind      Kind                         `json:"kind"`
	Retryable bool                         `json:"retryable"`
	Title     string                       `json:"title"`
	Message   string                       `json:"message"`
	Steps     []string                     `json:"steps"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
}

type remediation struct {
	title string
	steps []string
}

var remediations = map[Category]remediation{
	CategoryPaymentFailed: {
		title: "Payment could not be completed",
		steps: []string{
			"Check that the card details and billing name are correct",
			"Make sure the account has sufficient balance",
			"Try a different payment method",
		},
	},
	CategoryUnitUnavailable: {
		title: "Your selection is no longer available",
		steps: []string{
			"Go back and choose another room or seat",
			"Try different dates",
			"Contact support if the problem persists",
		},
	},
	CategoryInvalidData: {
		title: "Some booking information was rejected",
		steps: []string{
			"Review traveler names, dates of birth and identity documents",
			"Check the contact email and phone number",
			"Start the booking again with corrected details",
		},
	},
	CategoryTimeout: {
		title: "The booking service took too long to respond",
		steps: []string{
			"Check your internet connection",
			"Retry the submission, you will not be charged twice",
			"Check your email for a confirmation before booking again",
		},
	},
	CategorySystemError: {
		title: "Something went wrong on our side",
		steps: []string{
			"Wait a few minutes and try again",
			"Contact support with the time of your attempt",
		},
	},
}

var keywords = []struct {
	category Category
	words    []string
}{
	{CategoryTimeout, []string{"timeout", "timed out", "deadline"}},
	{CategoryPaymentFailed, []string{"payment", "card", "declined", "insufficient", "wallet"}},
	{CategoryUnitUnavailable, []string{"unavailable", "not available", "no longer available", "sold out", "fully booked", "occupied"}},
	{CategoryInvalidData, []string{"invalid", "validation", "required", "malformed"}},
}

// Classify maps a submission error to a user-facing failure. The error type
// decides the tier; the message decides the category when the type alone
// does not.
func Classify(err error) Failure {
	if err == nil {
		return Failure{}
	}
	msg := err.Error()

	var (
		category Category
		kind     Kind
		details  []apperrors.ValidationDetail
	)
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		category, kind = CategoryTimeout, KindTransient
	case isTimeout(err):
		category, kind = CategoryTimeout, KindTransient
	default:
		if ve, ok := apperrors.IsValidationError(err); ok {
			category, kind, details = CategoryInvalidData, KindValidation, ve.Details
			if c, ok := matchKeywords(msg); ok && c == CategoryPaymentFailed {
				category = c
			}
			break
		}
		if _, ok := apperrors.IsConflictError(err); ok {
			kind = KindConflict
			category = CategoryUnitUnavailable
			if c, ok := matchKeywords(msg); ok && c == CategoryPaymentFailed {
				category = c
			}
			break
		}
		category = CategorySystemError
		if _, ok := apperrors.IsTransientError(err); ok {
			// "503 Service Unavailable" says nothing about the unit.
			kind = KindTransient
			if c, ok := matchKeywords(msg); ok && c == CategoryTimeout {
				category = c
			}
			break
		}
		kind = KindFatal
		if c, ok := matchKeywords(msg); ok {
			category = c
		}
	}

	r := remediations[category]
	steps := make([]string, len(r.steps))
	copy(steps, r.steps)
	return Failure{
		Category:  category,
		Kind:      kind,
		Retryable: kind == KindConflict || kind == KindTransient,
		Title:     r.title,
		Message:   msg,
		Steps:     steps,
		Details:   details,
	}
}

func isTimeout(err error) bool {
	te, ok := apperrors.IsTransientError(err)
	return ok && te.Timeout
}

func matchKeywords(msg string) (Category, bool) {
	lower := strings.ToLower(msg)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.category, true
			}
		}
	}
	return "", false
}
