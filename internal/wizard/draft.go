package wizard

import (
	"time"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/payment"
	"waypoint/internal/selection"
)

var timeoutUnknownOutcome = apperrors.NewTimeoutError("submission outcome unknown after restart", nil)

// Draft is the persisted form of a wizard. It never holds secret payment
// fields such as the card number or CVV.
type Draft struct {
	ID             string                   `json:"id"`
	State          State                    `json:"state"`
	Item           domain.CatalogItem       `json:"item"`
	Identity       *domain.Identity         `json:"identity,omitempty"`
	Selection      domain.Selection         `json:"selection"`
	Passengers     []domain.PassengerRecord `json:"passengers,omitempty"`
	Contact        domain.Contact           `json:"contact"`
	Payment        domain.PaymentSelection  `json:"payment"`
	Failure        *Failure                 `json:"failure,omitempty"`
	Receipt        *domain.Receipt          `json:"receipt,omitempty"`
	Pending        *domain.BookingRequest   `json:"pending,omitempty"`
	IdempotencyKey string                   `json:"idempotencyKey,omitempty"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

func (w *Wizard) Snapshot() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := Draft{
		ID:         w.id,
		State:      w.state,
		Item:       w.item,
		Selection:  w.sel.Snapshot(),
		Passengers: append([]domain.PassengerRecord(nil), w.passengers...),
		Contact:    w.contact,
		Payment:    domain.PaymentSelection{MethodID: w.payment.MethodID},
		UpdatedAt:  w.updatedAt,
	}
	if w.identity != nil {
		id := *w.identity
		d.Identity = &id
	}
	if w.deps.Payments != nil && w.payment.MethodID != "" {
		if a, err := w.deps.Payments.Get(w.payment.MethodID); err == nil {
			d.Payment.Fields = payment.PublicFields(a, w.payment.Fields)
		}
	}
	if w.failure != nil {
		f := *w.failure
		d.Failure = &f
	}
	if w.receipt != nil {
		r := *w.receipt
		d.Receipt = &r
	}
	if w.pending != nil {
		p := *w.pending
		d.Pending = &p
		d.IdempotencyKey = p.IdempotencyKey
	}
	return d
}

// Restore rebuilds a wizard from a draft. A draft saved mid-submission has
// an unknown outcome; it comes back as a retryable timeout so that the
// customer can resubmit under the same idempotency key.
func Restore(d Draft, deps Deps) (*Wizard, error) {
	item := d.Item
	w, err := New(d.ID, &item, d.Identity, deps)
	if err != nil {
		return nil, err
	}
	if !d.State.IsValid() {
		d.State = StateSelection
	}

	w.sel = selection.Restore(item, w.deps.Policy, w.deps.Now, d.Selection)
	w.state = d.State
	w.passengers = append([]domain.PassengerRecord(nil), d.Passengers...)
	w.contact = d.Contact
	w.payment = d.Payment
	w.failure = d.Failure
	w.receipt = d.Receipt
	if d.Pending != nil {
		p := *d.Pending
		p.IdempotencyKey = d.IdempotencyKey
		w.pending = &p
	}
	if w.state == StateSubmitting {
		f := Classify(timeoutUnknownOutcome)
		w.failure = &f
		w.state = StateFailed
	}
	if !d.UpdatedAt.IsZero() {
		w.updatedAt = d.UpdatedAt
	}
	return w, nil
}
