package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"waypoint/internal/domain"
	"waypoint/internal/dto"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/payment"
	"waypoint/internal/wizard"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type WizardUseCase interface {
	Create(ctx context.Context, service domain.ServiceType, itemID string, identity *domain.Identity) (wizard.View, error)
	View(ctx context.Context, id string) (wizard.View, error)
	SetPartyCount(ctx context.Context, id string, category domain.PartyCategory, delta int) (wizard.View, error)
	ToggleUnit(ctx context.Context, id, unitID string) (wizard.View, error)
	SetRequestedUnits(ctx context.Context, id string, n int) (wizard.View, error)
	SetDateRange(ctx context.Context, id string, r domain.DateRange) (wizard.View, error)
	SetDetails(ctx context.Context, id string, passengers []domain.PassengerRecord, contact domain.Contact) (wizard.View, error)
	SetPayment(ctx context.Context, id string, ps domain.PaymentSelection) (wizard.View, error)
	Next(ctx context.Context, id string) (wizard.View, error)
	Back(ctx context.Context, id string) (wizard.View, error)
	Submit(ctx context.Context, id string, identity *domain.Identity) (wizard.View, error)
	Resubmit(ctx context.Context, id string, identity *domain.Identity) (wizard.View, error)
	Retry(ctx context.Context, id string) (wizard.View, error)
	PaymentMethods() []payment.Adapter
	CatalogItem(ctx context.Context, service domain.ServiceType, id string) (*domain.CatalogItem, error)
}

type IdentityParser interface {
	FromRequest(r *http.Request) (*domain.Identity, error)
}

type WizardController struct {
	useCase  WizardUseCase
	identity IdentityParser
	logger   *zap.Logger
}

func NewWizardController(useCase WizardUseCase, identity IdentityParser, logger *zap.Logger) *WizardController {
	return &WizardController{
		useCase:  useCase,
		identity: identity,
		logger:   logger,
	}
}

func (c *WizardController) begin(r *http.Request, op string) (string, *zap.Logger) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("op", op))
	if id := chi.URLParam(r, "wizardId"); id != "" {
		logger = logger.With(zap.String("wizardId", id))
	}
	return traceID, logger
}

func (c *WizardController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "create")

	var req dto.CreateWizardRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}

	var details []apperrors.ValidationDetail
	if req.ServiceType == "" {
		details = append(details, apperrors.ValidationDetail{Field: "serviceType", Message: "serviceType is required"})
	} else if !domain.ServiceType(req.ServiceType).IsValid() {
		details = append(details, apperrors.ValidationDetail{Field: "serviceType", Message: "serviceType must be one of tour, hotel, flight"})
	}
	if strings.TrimSpace(req.ItemID) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "itemId", Message: "itemId is required"})
	}
	if len(details) > 0 {
		c.writeValidationError(w, traceID, "validation failed", details...)
		return
	}

	identity, err := c.identity.FromRequest(r)
	if err != nil {
		c.handleUseCaseError(w, traceID, nil, err, logger)
		return
	}

	view, err := c.useCase.Create(r.Context(), domain.ServiceType(req.ServiceType), strings.TrimSpace(req.ItemID), identity)
	if err != nil {
		c.handleUseCaseError(w, traceID, nil, err, logger)
		return
	}
	c.writeWizard(w, traceID, http.StatusCreated, view)
}

func (c *WizardController) View(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "view")
	view, err := c.useCase.View(r.Context(), chi.URLParam(r, "wizardId"))
	if err != nil {
		c.handleUseCaseError(w, traceID, nil, err, logger)
		return
	}
	c.writeWizard(w, traceID, http.StatusOK, view)
}

func (c *WizardController) SetParty(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "party")

	var req dto.PartyRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}
	if req.Delta == 0 {
		c.writeValidationError(w, traceID, "validation failed", apperrors.ValidationDetail{
			Field:   "delta",
			Message: "delta must be non-zero",
		})
		return
	}

	view, err := c.useCase.SetPartyCount(r.Context(), chi.URLParam(r, "wizardId"), domain.PartyCategory(req.Category), req.Delta)
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) ToggleUnit(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "toggle_unit")

	var req dto.ToggleUnitRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}
	if strings.TrimSpace(req.UnitID) == "" {
		c.writeValidationError(w, traceID, "validation failed", apperrors.ValidationDetail{
			Field:   "unitId",
			Message: "unitId is required",
		})
		return
	}

	view, err := c.useCase.ToggleUnit(r.Context(), chi.URLParam(r, "wizardId"), req.UnitID)
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) SetUnitCount(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "unit_count")

	var req dto.UnitCountRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}

	view, err := c.useCase.SetRequestedUnits(r.Context(), chi.URLParam(r, "wizardId"), req.Count)
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) SetDates(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "dates")

	var req dto.DatesRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}

	var (
		dates   domain.DateRange
		details []apperrors.ValidationDetail
		err     error
	)
	if dates.Start, err = parseDate(req.Start); err != nil {
		details = append(details, apperrors.ValidationDetail{Field: "dates.start", Message: err.Error()})
	}
	if dates.End, err = parseDate(req.End); err != nil {
		details = append(details, apperrors.ValidationDetail{Field: "dates.end", Message: err.Error()})
	}
	if len(details) > 0 {
		c.writeValidationError(w, traceID, "invalid date range", details...)
		return
	}

	view, err := c.useCase.SetDateRange(r.Context(), chi.URLParam(r, "wizardId"), dates)
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) SetDetails(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "details")

	var req dto.DetailsRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}

	var details []apperrors.ValidationDetail
	if len(req.Passengers) > 50 {
		details = append(details, apperrors.ValidationDetail{Field: "passengers", Message: "passengers exceeds maximum of 50"})
	}
	passengers := make([]domain.PassengerRecord, len(req.Passengers))
	for i, p := range req.Passengers {
		dob, err := parseDate(p.DateOfBirth)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("passengers[%d].dateOfBirth", i),
				Message: err.Error(),
			})
		}
		passengers[i] = domain.PassengerRecord{
			Type:                domain.PartyCategory(p.Type),
			FirstName:           strings.TrimSpace(p.FirstName),
			LastName:            strings.TrimSpace(p.LastName),
			DateOfBirth:         dob,
			IdentityDocument:    strings.ToUpper(strings.TrimSpace(p.IdentityDocument)),
			SpecialRequirements: p.SpecialRequirements,
		}
	}
	if len(details) > 0 {
		c.writeValidationError(w, traceID, "validation failed", details...)
		return
	}

	contact := domain.Contact{
		FullName: strings.TrimSpace(req.Contact.FullName),
		Email:    strings.TrimSpace(req.Contact.Email),
		Phone:    strings.TrimSpace(req.Contact.Phone),
	}
	view, err := c.useCase.SetDetails(r.Context(), chi.URLParam(r, "wizardId"), passengers, contact)
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) SetPayment(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "payment")

	var req dto.PaymentRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}
	if req.MethodID == "" {
		c.writeValidationError(w, traceID, "validation failed", apperrors.ValidationDetail{
			Field:   "methodId",
			Message: "methodId is required",
		})
		return
	}

	view, err := c.useCase.SetPayment(r.Context(), chi.URLParam(r, "wizardId"), domain.PaymentSelection{
		MethodID: domain.PaymentMethod(req.MethodID),
		Fields:   req.Fields,
	})
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) Next(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "next")
	view, err := c.useCase.Next(r.Context(), chi.URLParam(r, "wizardId"))
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) Back(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "back")
	view, err := c.useCase.Back(r.Context(), chi.URLParam(r, "wizardId"))
	c.respond(w, traceID, view, err, logger)
}

// Submit answers 200 with the wizard in succeeded or failed; a failed
// booking is part of the wizard, not an HTTP error.
func (c *WizardController) Submit(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "submit")
	identity, err := c.identity.FromRequest(r)
	if err != nil {
		c.handleUseCaseError(w, traceID, nil, err, logger)
		return
	}
	view, err := c.useCase.Submit(r.Context(), chi.URLParam(r, "wizardId"), identity)
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) Resubmit(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "resubmit")
	identity, err := c.identity.FromRequest(r)
	if err != nil {
		c.handleUseCaseError(w, traceID, nil, err, logger)
		return
	}
	view, err := c.useCase.Resubmit(r.Context(), chi.URLParam(r, "wizardId"), identity)
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) Retry(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "retry")
	view, err := c.useCase.Retry(r.Context(), chi.URLParam(r, "wizardId"))
	c.respond(w, traceID, view, err, logger)
}

func (c *WizardController) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	traceID, _ := c.begin(r, "payment_methods")

	adapters := c.useCase.PaymentMethods()
	methods := make([]dto.PaymentMethodResponse, len(adapters))
	for i, a := range adapters {
		methods[i] = dto.PaymentMethodResponse{
			ID:       a.ID(),
			Label:    a.Label(),
			TestMode: a.TestMode(),
			Fields:   a.Schema(),
		}
	}
	c.writeJSON(w, http.StatusOK, dto.PaymentMethodsResponse{TraceID: traceID, Methods: methods})
}

func (c *WizardController) CatalogItem(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.begin(r, "catalog_item")

	service := domain.ServiceType(chi.URLParam(r, "service"))
	if !service.IsValid() {
		c.writeValidationError(w, traceID, "validation failed", apperrors.ValidationDetail{
			Field:   "service",
			Message: "service must be one of tour, hotel, flight",
		})
		return
	}

	item, err := c.useCase.CatalogItem(r.Context(), service, chi.URLParam(r, "itemId"))
	if err != nil {
		c.handleUseCaseError(w, traceID, nil, err, logger)
		return
	}
	c.writeJSON(w, http.StatusOK, dto.CatalogItemResponse{TraceID: traceID, Item: item})
}

func (c *WizardController) decode(w http.ResponseWriter, r *http.Request, traceID string, dst interface{}, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}

// respond writes the wizard after a command. A command rejected by the
// wizard still carries the view, which goes out with the error.
func (c *WizardController) respond(w http.ResponseWriter, traceID string, view wizard.View, err error, logger *zap.Logger) {
	if err != nil {
		var current *wizard.View
		if view.ID != "" {
			current = &view
		}
		c.handleUseCaseError(w, traceID, current, err, logger)
		return
	}
	c.writeWizard(w, traceID, http.StatusOK, view)
}

func (c *WizardController) handleUseCaseError(w http.ResponseWriter, traceID string, view *wizard.View, err error, logger *zap.Logger) {
	resp := dto.ErrorResponse{
		TraceID:   traceID,
		Message:   err.Error(),
		Wizard:    view,
		Timestamp: time.Now().UTC(),
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Status, resp.Code, resp.Details = http.StatusBadRequest, "VALIDATION_ERROR", ve.Details
	} else if pe, ok := apperrors.IsPaymentValidationError(err); ok {
		resp.Status, resp.Code, resp.Details = http.StatusBadRequest, "PAYMENT_VALIDATION_ERROR", pe.Details
	} else if _, ok := apperrors.IsCapacityExceededError(err); ok {
		resp.Status, resp.Code = http.StatusBadRequest, "CAPACITY_EXCEEDED"
	} else if pm, ok := apperrors.IsPreconditionMissingError(err); ok {
		resp.Status, resp.Code, resp.Redirect = http.StatusNotFound, "PRECONDITION_MISSING", pm.Redirect
	} else if _, ok := apperrors.IsNotFoundError(err); ok {
		resp.Status, resp.Code = http.StatusNotFound, "NOT_FOUND"
	} else if _, ok := apperrors.IsInvalidTransitionError(err); ok {
		resp.Status, resp.Code = http.StatusConflict, "INVALID_TRANSITION"
	} else if _, ok := apperrors.IsConflictError(err); ok {
		resp.Status, resp.Code = http.StatusConflict, "CONFLICT"
	} else if _, ok := apperrors.IsForbiddenError(err); ok {
		resp.Status, resp.Code = http.StatusForbidden, "FORBIDDEN"
	} else if _, ok := apperrors.IsTransientError(err); ok {
		logger.Warn("upstream unavailable", zap.Error(err))
		resp.Status, resp.Code = http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	} else {
		logger.Error("unexpected error", zap.Error(err))
		resp.Status, resp.Code, resp.Message = http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
	}

	c.writeJSON(w, resp.Status, resp)
}

func (c *WizardController) writeWizard(w http.ResponseWriter, traceID string, status int, view wizard.View) {
	c.writeJSON(w, status, dto.WizardResponse{
		TraceID:   traceID,
		Wizard:    view,
		Timestamp: time.Now().UTC(),
	})
}

func (c *WizardController) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    http.StatusBadRequest,
		Code:      "VALIDATION_ERROR",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (c *WizardController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}

// parseDate accepts YYYY-MM-DD or RFC 3339. An empty string is the zero
// time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("must be a date in YYYY-MM-DD format")
	}
	return t.UTC(), nil
}
