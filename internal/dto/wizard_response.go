package dto

import (
	"time"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/payment"
	"waypoint/internal/wizard"
)

type WizardResponse struct {
	TraceID   string      `json:"traceId"`
	Wizard    wizard.View `json:"wizard"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorResponse is returned for every non-2xx answer. Wizard is set when the
// command reached an existing wizard, so the client can render the step next
// to the error.
type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Redirect  string                       `json:"redirect,omitempty"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Wizard    *wizard.View                 `json:"wizard,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

type PaymentMethodResponse struct {
	ID       domain.PaymentMethod `json:"id"`
	Label    string               `json:"label"`
	TestMode bool                 `json:"testMode"`
	Fields   []payment.FieldSpec  `json:"fields"`
}

type PaymentMethodsResponse struct {
	TraceID string                  `json:"traceId"`
	Methods []PaymentMethodResponse `json:"methods"`
}

type CatalogItemResponse struct {
	TraceID string              `json:"traceId"`
	Item    *domain.CatalogItem `json:"item"`
}
