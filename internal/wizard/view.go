package wizard

import (
	"time"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/payment"
	"waypoint/internal/selection"
)

type ItemSummary struct {
	ID          string             `json:"id"`
	ServiceType domain.ServiceType `json:"serviceType"`
	Name        string             `json:"name"`
	BasePrice   int64              `json:"basePrice"`
	Units       []domain.Unit      `json:"units,omitempty"`
	Promotion   *domain.Promotion  `json:"promotion,omitempty"`
}

// View is the read model the frontend renders for the current step.
type View struct {
	ID          string                       `json:"id"`
	State       State                        `json:"state"`
	Next        []State                      `json:"next"`
	Item        ItemSummary                  `json:"item"`
	Selection   domain.Selection             `json:"selection"`
	Price       domain.PriceBreakdown        `json:"price"`
	Advisory    *selection.Advisory          `json:"advisory,omitempty"`
	Passengers  []domain.PassengerRecord     `json:"passengers,omitempty"`
	Contact     domain.Contact               `json:"contact"`
	Payment     *domain.PaymentSelection     `json:"payment,omitempty"`
	TestMode    bool                         `json:"testMode,omitempty"`
	FieldErrors []apperrors.ValidationDetail `json:"fieldErrors,omitempty"`
	Failure     *Failure                     `json:"failure,omitempty"`
	Receipt     *domain.Receipt              `json:"receipt,omitempty"`

	// IdempotencyKey identifies the last submission attempt, kept for
	// support lookups and resubmission.
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	sel := w.sel.Snapshot()
	v := View{
		ID:    w.id,
		State: w.state,
		Next:  w.state.Allowed(),
		Item: ItemSummary{
			ID:          w.item.ID,
			ServiceType: w.item.ServiceType,
			Name:        w.item.Name,
			BasePrice:   w.item.BasePrice,
			Units:       w.item.Units,
			Promotion:   w.item.Promotion,
		},
		Selection:   sel,
		Price:       w.deps.Calculator.Compute(sel, w.item),
		Advisory:    w.sel.Advisory(),
		Passengers:  append([]domain.PassengerRecord(nil), w.passengers...),
		Contact:     w.contact,
		FieldErrors: append([]apperrors.ValidationDetail(nil), w.fieldErrors...),
		UpdatedAt:   w.updatedAt,
	}
	if w.payment.MethodID != "" && w.deps.Payments != nil {
		ps := domain.PaymentSelection{MethodID: w.payment.MethodID}
		if a, err := w.deps.Payments.Get(w.payment.MethodID); err == nil {
			ps.Fields = payment.PublicFields(a, w.payment.Fields)
			v.TestMode = a.TestMode()
		}
		v.Payment = &ps
	}
	if w.failure != nil {
		f := *w.failure
		v.Failure = &f
	}
	if w.receipt != nil {
		r := *w.receipt
		v.Receipt = &r
	}
	if w.pending != nil {
		v.IdempotencyKey = w.pending.IdempotencyKey
	}
	return v
}
