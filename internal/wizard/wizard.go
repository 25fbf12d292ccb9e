// Package wizard drives one booking attempt through selection, traveler
// details, payment and submission.
package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/payment"
	"waypoint/internal/pricing"
	"waypoint/internal/selection"
	"waypoint/internal/validation"
)

// ErrSubmissionInFlight is returned by Submit while an earlier submission of
// the same wizard has not completed. Nothing is sent.
var ErrSubmissionInFlight = apperrors.NewConflictError("a submission is already in progress")

type Submitter interface {
	Submit(ctx context.Context, req domain.BookingRequest) (*domain.BookingConfirmation, error)
}

type Deps struct {
	Policy     selection.Policy
	Calculator *pricing.Calculator
	Validator  *validation.Validator
	Payments   *payment.Registry
	Submitter  Submitter
	Logger     *zap.Logger
	Now        func() time.Time
	NewKey     func() string
}

func (d *Deps) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewKey == nil {
		d.NewKey = uuid.NewString
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Calculator == nil {
		d.Calculator = pricing.Default()
	}
	if d.Validator == nil {
		d.Validator = validation.New(d.Now)
	}
}

type Wizard struct {
	mu   sync.Mutex
	id   string
	deps Deps

	item     domain.CatalogItem
	identity *domain.Identity
	state    State
	sel      *selection.State

	passengers []domain.PassengerRecord
	contact    domain.Contact
	payment    domain.PaymentSelection

	fieldErrors []apperrors.ValidationDetail
	failure     *Failure
	receipt     *domain.Receipt
	pending     *domain.BookingRequest
	updatedAt   time.Time
}

// New starts a wizard in the selection step. item is the bookable item the
// calling page hands over; without it there is nothing to book and the
// caller must redirect away.
func New(id string, item *domain.CatalogItem, identity *domain.Identity, deps Deps) (*Wizard, error) {
	if item == nil {
		return nil, apperrors.NewPreconditionMissingError("no item selected for booking", "/")
	}
	if !item.ServiceType.IsValid() {
		return nil, apperrors.NewPreconditionMissingError(
			fmt.Sprintf("unsupported service type %q", item.ServiceType), "/")
	}
	if !item.Available {
		return nil, apperrors.NewPreconditionMissingError(
			fmt.Sprintf("%s %s is not open for booking", item.ServiceType, item.ID), redirectFor(item.ServiceType))
	}
	deps.defaults()

	w := &Wizard{
		id:       id,
		deps:     deps,
		item:     *item,
		identity: identity,
		state:    StateSelection,
		sel:      selection.New(*item, deps.Policy, deps.Now),
		contact:  identity.Contact(),
	}
	w.touch()
	return w, nil
}

func redirectFor(s domain.ServiceType) string {
	return "/" + string(s) + "s"
}

func (w *Wizard) ID() string { return w.id }

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) UpdatedAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updatedAt
}

func (w *Wizard) touch() {
	w.updatedAt = w.deps.Now()
}

func (w *Wizard) logger() *zap.Logger {
	return w.deps.Logger.With(zap.String("wizardId", w.id), zap.String("serviceType", string(w.item.ServiceType)))
}

func (w *Wizard) requireState(want State, action string) error {
	if w.state != want {
		return apperrors.NewConflictError(fmt.Sprintf("cannot %s in the %s step", action, w.state))
	}
	return nil
}

func (w *Wizard) transition(to State) error {
	if !w.state.CanTransitionTo(to) {
		return apperrors.NewInvalidTransitionError(string(w.state), string(to))
	}
	w.logger().Info("wizard transition", zap.String("from", string(w.state)), zap.String("to", string(to)))
	w.state = to
	w.fieldErrors = nil
	w.touch()
	return nil
}

func (w *Wizard) SetPartyCount(category domain.PartyCategory, delta int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(StateSelection, "change travelers"); err != nil {
		return err
	}
	w.touch()
	return w.sel.SetPartyCount(category, delta)
}

func (w *Wizard) ToggleUnit(unitID string) (selection.ToggleResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(StateSelection, "change units"); err != nil {
		return selection.ToggleResult{}, err
	}
	w.touch()
	return w.sel.ToggleUnit(unitID)
}

func (w *Wizard) SetRequestedUnits(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(StateSelection, "change the unit count"); err != nil {
		return err
	}
	w.touch()
	return w.sel.SetRequestedUnits(n)
}

func (w *Wizard) SetDateRange(r domain.DateRange) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(StateSelection, "change dates"); err != nil {
		return err
	}
	w.touch()
	return w.sel.SetDateRange(r)
}

// SetDetails stores traveler and contact input as entered. It is checked
// when leaving the step, not here.
func (w *Wizard) SetDetails(passengers []domain.PassengerRecord, contact domain.Contact) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(StateDetails, "edit traveler details"); err != nil {
		return err
	}
	w.passengers = append([]domain.PassengerRecord(nil), passengers...)
	w.contact = contact
	w.fieldErrors = nil
	w.touch()
	return nil
}

func (w *Wizard) SetPayment(ps domain.PaymentSelection) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(StatePayment, "choose a payment method"); err != nil {
		return err
	}
	if w.deps.Payments == nil {
		return apperrors.NewInternalError("payment methods are not configured", nil)
	}
	if _, err := w.deps.Payments.Get(ps.MethodID); err != nil {
		return err
	}
	fields := make(map[string]string, len(ps.Fields))
	for k, v := range ps.Fields {
		fields[k] = v
	}
	w.payment = domain.PaymentSelection{MethodID: ps.MethodID, Fields: fields}
	w.fieldErrors = nil
	w.touch()
	return nil
}

// Next moves forward one step if the current step's guard passes. On
// failure the state is unchanged and every field problem is kept for View.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateSelection:
		if err := w.sel.Validate(); err != nil {
			return w.guardFailed(err)
		}
		w.seedPassengers()
		return w.transition(StateDetails)
	case StateDetails:
		sel := w.sel.Snapshot()
		if err := w.deps.Validator.ValidateDetails(sel.Party, w.passengers, w.contact, sel.Dates.Start); err != nil {
			return w.guardFailed(err)
		}
		return w.transition(StatePayment)
	default:
		return apperrors.NewInvalidTransitionError(string(w.state), "next")
	}
}

func (w *Wizard) guardFailed(err error) error {
	if ve, ok := apperrors.IsValidationError(err); ok {
		w.fieldErrors = ve.Details
	} else if pe, ok := apperrors.IsPaymentValidationError(err); ok {
		w.fieldErrors = pe.Details
	}
	w.logger().Warn("wizard guard failed", zap.String("state", string(w.state)), zap.Error(err))
	return err
}

// seedPassengers lines traveler slots up with the party, reusing records
// already entered for the same traveler type.
func (w *Wizard) seedPassengers() {
	party := w.sel.Snapshot().Party
	byType := make(map[domain.PartyCategory][]domain.PassengerRecord)
	for _, p := range w.passengers {
		byType[p.Type] = append(byType[p.Type], p)
	}

	seeded := make([]domain.PassengerRecord, 0, party.Total())
	for _, c := range []domain.PartyCategory{domain.CategoryAdult, domain.CategoryChild, domain.CategoryInfant} {
		for i := 0; i < party.Get(c); i++ {
			if queue := byType[c]; len(queue) > 0 {
				seeded = append(seeded, queue[0])
				byType[c] = queue[1:]
				continue
			}
			seeded = append(seeded, domain.PassengerRecord{Type: c})
		}
	}
	w.passengers = seeded
}

// Back returns to the previous step. Entered values are kept.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateDetails:
		return w.transition(StateSelection)
	case StatePayment:
		return w.transition(StateDetails)
	default:
		return apperrors.NewInvalidTransitionError(string(w.state), "back")
	}
}

// Submit validates the payment input, builds the booking request and sends
// it. A returned error means the wizard did not leave the payment step; the
// outcome of a sent request is recorded as Succeeded or Failed. A non-nil
// identity replaces the one captured at creation, so the request carries the
// caller's current token.
func (w *Wizard) Submit(ctx context.Context, identity *domain.Identity) error {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if w.state != StatePayment {
		from := w.state
		w.mu.Unlock()
		return apperrors.NewInvalidTransitionError(string(from), string(StateSubmitting))
	}
	w.refreshIdentity(identity)
	req, err := w.buildRequest()
	if err != nil {
		err = w.guardFailed(err)
		w.mu.Unlock()
		return err
	}
	w.pending = &req
	if err := w.transition(StateSubmitting); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	w.send(ctx, req)
	return nil
}

// Resubmit re-sends the failed request unchanged, with the same idempotency
// key, when the failure allows it. Only the bearer token is refreshed.
func (w *Wizard) Resubmit(ctx context.Context, identity *domain.Identity) error {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if w.state != StateFailed || w.pending == nil {
		from := w.state
		w.mu.Unlock()
		return apperrors.NewInvalidTransitionError(string(from), string(StateSubmitting))
	}
	if w.failure != nil && !w.failure.Retryable {
		w.mu.Unlock()
		return apperrors.NewConflictError(fmt.Sprintf("a %s failure cannot be resubmitted, start over instead", w.failure.Category))
	}
	w.refreshIdentity(identity)
	req := *w.pending
	req.AuthToken = w.authToken()
	if err := w.transition(StateSubmitting); err != nil {
		w.mu.Unlock()
		return err
	}
	w.failure = nil
	w.mu.Unlock()

	w.send(ctx, req)
	return nil
}

func (w *Wizard) send(ctx context.Context, req domain.BookingRequest) {
	conf, err := w.deps.Submitter.Submit(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	log := w.logger().With(zap.String("idempotencyKey", req.IdempotencyKey))

	if err != nil {
		f := Classify(err)
		w.failure = &f
		log.Error("booking submission failed",
			zap.String("category", string(f.Category)),
			zap.String("kind", string(f.Kind)),
			zap.Error(err))
		_ = w.transition(StateFailed)
		return
	}

	w.receipt = w.composeReceipt(req, conf)
	w.payment.Fields = nil
	log.Info("booking submitted", zap.String("bookingCode", conf.BookingCode))
	_ = w.transition(StateSucceeded)
}

func (w *Wizard) buildRequest() (domain.BookingRequest, error) {
	if w.deps.Submitter == nil || w.deps.Payments == nil {
		return domain.BookingRequest{}, apperrors.NewInternalError("booking submission is not configured", nil)
	}
	adapter, err := w.deps.Payments.Get(w.payment.MethodID)
	if err != nil {
		return domain.BookingRequest{}, err
	}
	if err := adapter.Validate(w.payment.Fields); err != nil {
		return domain.BookingRequest{}, err
	}

	sel := w.sel.Snapshot()
	price := w.deps.Calculator.Compute(sel, w.item)
	fragment, err := adapter.Serialize(w.payment.Fields, payment.Context{
		ContactPhone: w.contact.Phone,
		Total:        price.FinalTotal,
	})
	if err != nil {
		return domain.BookingRequest{}, err
	}
	// The raw input is not needed once serialized.
	w.payment.Fields = payment.PublicFields(adapter, w.payment.Fields)

	req := domain.BookingRequest{
		IdempotencyKey: w.deps.NewKey(),
		ServiceType:    w.item.ServiceType,
		ItemID:         w.item.ID,
		UnitIDs:        sel.UnitIDs(),
		Dates:          sel.Dates,
		Party:          sel.Party,
		Passengers:     append([]domain.PassengerRecord(nil), w.passengers...),
		Contact:        w.contact,
		Payment:        fragment,
		Price:          price,
		TotalAmount:    price.FinalTotal,
		AuthToken:      w.authToken(),
	}
	if w.identity != nil {
		req.UserID = w.identity.UserID
	}
	return req, nil
}

// refreshIdentity keeps the latest caller identity. Tokens are never part of
// a draft, so a restored wizard only has one after this.
func (w *Wizard) refreshIdentity(identity *domain.Identity) {
	if identity == nil {
		return
	}
	id := *identity
	w.identity = &id
}

func (w *Wizard) authToken() string {
	if w.identity == nil {
		return ""
	}
	return w.identity.Token
}

func (w *Wizard) composeReceipt(req domain.BookingRequest, conf *domain.BookingConfirmation) *domain.Receipt {
	r := &domain.Receipt{
		BookingID:     conf.BookingID,
		BookingCode:   conf.BookingCode,
		ServiceType:   req.ServiceType,
		ItemName:      w.item.Name,
		ContactEmail:  req.Contact.Email,
		PaymentMethod: req.Payment.Method,
		MaskedPayment: req.Payment.MaskedSummary,
		Simulated:     req.Payment.Simulated,
		Price:         req.Price,
		IssuedAt:      w.deps.Now(),
	}
	if req.Payment.Bank != nil {
		bank := *req.Payment.Bank
		r.BankInstructions = &bank
	}
	return r
}

// Retry abandons a failed attempt and starts over from the selection step
// with the same item. Contact details are kept.
func (w *Wizard) Retry() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateFailed {
		return apperrors.NewInvalidTransitionError(string(w.state), string(StateSelection))
	}
	if err := w.transition(StateSelection); err != nil {
		return err
	}
	w.sel = selection.New(w.item, w.deps.Policy, w.deps.Now)
	w.passengers = nil
	w.payment = domain.PaymentSelection{}
	w.failure = nil
	w.pending = nil
	return nil
}

// Failure is the classified outcome of the last failed submission.
func (w *Wizard) Failure() *Failure {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failure == nil {
		return nil
	}
	f := *w.failure
	return &f
}

func (w *Wizard) Receipt() *domain.Receipt {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.receipt == nil {
		return nil
	}
	r := *w.receipt
	return &r
}
