// Package payment adapts each supported payment method to the booking
// request: the input schema the frontend renders, validation of what the
// customer typed, and a secret-free fragment for the request body.
package payment

import (
	"sort"
	"strings"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

type FieldSpec struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Pattern  string `json:"pattern,omitempty"`
	// Secret fields are dropped from drafts and never logged.
	Secret bool `json:"secret,omitempty"`
}

// Context is what an adapter may read from the rest of the booking.
type Context struct {
	ContactPhone string
	Total        int64
}

type Adapter interface {
	ID() domain.PaymentMethod
	Label() string
	Schema() []FieldSpec
	Validate(fields map[string]string) error
	Serialize(fields map[string]string, pc Context) (domain.PaymentFragment, error)
	// TestMode reports that the method is a labelled simulation with no real
	// gateway behind it.
	TestMode() bool
}

type Registry struct {
	adapters map[domain.PaymentMethod]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[domain.PaymentMethod]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.ID()] = a
	}
	return r
}

func (r *Registry) Get(id domain.PaymentMethod) (Adapter, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, apperrors.NewPaymentValidationError(string(id), "unsupported payment method",
			apperrors.ValidationDetail{Field: "methodId", Message: "must be one of " + strings.Join(r.ids(), ", ")})
	}
	return a, nil
}

// List returns adapters ordered by method id.
func (r *Registry) List() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, id := range r.ids() {
		out = append(out, r.adapters[domain.PaymentMethod(id)])
	}
	return out
}

func (r *Registry) ids() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return ids
}

// PublicFields returns a copy of fields without the adapter's secret fields.
func PublicFields(a Adapter, fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	secret := make(map[string]bool)
	for _, f := range a.Schema() {
		if f.Secret {
			secret[f.Name] = true
		}
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if !secret[k] {
			out[k] = v
		}
	}
	return out
}

// MaskCardNumber keeps only the last four digits.
func MaskCardNumber(number string) string {
	digits := onlyDigits(number)
	if len(digits) < 4 {
		return "****"
	}
	return "**** **** **** " + digits[len(digits)-4:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
