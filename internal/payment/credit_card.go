package payment

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/validation"
)

const (
	FieldCardNumber = "cardNumber"
	FieldCardHolder = "cardHolder"
	FieldCardExpiry = "expiry"
	FieldCardCVV    = "cvv"
)

type cardForm struct {
	Number string `json:"cardNumber" validate:"required,cardnumber"`
	Holder string `json:"cardHolder" validate:"required,personname"`
	Expiry string `json:"expiry" validate:"required,cardexpiry"`
	CVV    string `json:"cvv" validate:"required,cvv"`
}

type CreditCard struct {
	validator *validation.Validator
	now       func() time.Time
}

func NewCreditCard(v *validation.Validator, now func() time.Time) *CreditCard {
	if now == nil {
		now = time.Now
	}
	return &CreditCard{validator: v, now: now}
}

func (c *CreditCard) ID() domain.PaymentMethod { return domain.PaymentCreditCard }

func (c *CreditCard) Label() string { return "Credit / debit card" }

func (c *CreditCard) TestMode() bool { return false }

func (c *CreditCard) Schema() []FieldSpec {
	return []FieldSpec{
		{Name: FieldCardNumber, Label: "Card number", Type: "text", Required: true, Pattern: `^[0-9 ]{16,19}$`, Secret: true},
		{Name: FieldCardHolder, Label: "Name on card", Type: "text", Required: true},
		{Name: FieldCardExpiry, Label: "Expiry (MM/YY)", Type: "text", Required: true, Pattern: `^(0[1-9]|1[0-2])/[0-9]{2}$`},
		{Name: FieldCardCVV, Label: "CVV", Type: "password", Required: true, Pattern: `^[0-9]{3,4}$`, Secret: true},
	}
}

func (c *CreditCard) form(fields map[string]string) cardForm {
	return cardForm{
		Number: strings.NewReplacer(" ", "", "-", "").Replace(fields[FieldCardNumber]),
		Holder: strings.TrimSpace(fields[FieldCardHolder]),
		Expiry: strings.TrimSpace(fields[FieldCardExpiry]),
		CVV:    strings.TrimSpace(fields[FieldCardCVV]),
	}
}

func (c *CreditCard) Validate(fields map[string]string) error {
	f := c.form(fields)
	details := c.validator.Struct("", f)
	if !hasField(details, FieldCardExpiry) && c.expired(f.Expiry) {
		details = append(details, apperrors.ValidationDetail{Field: FieldCardExpiry, Message: "card has expired"})
	}
	if len(details) > 0 {
		return apperrors.NewPaymentValidationError(string(c.ID()), "card details are invalid", details...)
	}
	return nil
}

// expired treats a card as valid through the last day of its expiry month.
func (c *CreditCard) expired(expiry string) bool {
	parts := strings.SplitN(expiry, "/", 2)
	if len(parts) != 2 {
		return true
	}
	month := cast.ToInt(strings.TrimLeft(parts[0], "0"))
	year := 2000 + cast.ToInt(strings.TrimLeft(parts[1], "0"))
	now := c.now()
	firstOfNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	return !now.Before(firstOfNext)
}

func (c *CreditCard) Serialize(fields map[string]string, _ Context) (domain.PaymentFragment, error) {
	if err := c.Validate(fields); err != nil {
		return domain.PaymentFragment{}, err
	}
	f := c.form(fields)
	return domain.PaymentFragment{
		Method:        c.ID(),
		MaskedSummary: MaskCardNumber(f.Number),
		Attributes: map[string]string{
			"cardHolder": f.Holder,
			"last4":      f.Number[len(f.Number)-4:],
			"expiry":     f.Expiry,
		},
	}, nil
}

func hasField(details []apperrors.ValidationDetail, field string) bool {
	for _, d := range details {
		if d.Field == field {
			return true
		}
	}
	return false
}
