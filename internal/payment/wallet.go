package payment

import (
	"strings"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/validation"
)

const FieldWalletPhone = "walletPhone"

// Wallet covers the e-wallet methods. There is no gateway integration: the
// adapter returns a static QR reference and always succeeds, and every
// fragment it produces is marked Simulated.
type Wallet struct {
	id        domain.PaymentMethod
	label     string
	qrCodeRef string
}

func NewVNPay(qrCodeRef string) *Wallet {
	return &Wallet{id: domain.PaymentVNPay, label: "VNPay (test mode)", qrCodeRef: qrCodeRef}
}

func NewMoMo(qrCodeRef string) *Wallet {
	return &Wallet{id: domain.PaymentMoMo, label: "MoMo (test mode)", qrCodeRef: qrCodeRef}
}

func (w *Wallet) ID() domain.PaymentMethod { return w.id }

func (w *Wallet) Label() string { return w.label }

func (w *Wallet) TestMode() bool { return true }

func (w *Wallet) Schema() []FieldSpec {
	return []FieldSpec{
		{Name: FieldWalletPhone, Label: "Wallet phone number", Type: "tel", Required: false, Pattern: `^(0|\+84)[0-9]{9,10}$`},
	}
}

func (w *Wallet) Validate(fields map[string]string) error {
	phone := strings.TrimSpace(fields[FieldWalletPhone])
	if phone != "" && !validation.ValidPhone(phone) {
		return apperrors.NewPaymentValidationError(string(w.id), "wallet details are invalid",
			apperrors.ValidationDetail{Field: FieldWalletPhone, Message: "must start with 0 or +84 followed by 9-10 digits"})
	}
	return nil
}

func (w *Wallet) Serialize(fields map[string]string, pc Context) (domain.PaymentFragment, error) {
	if err := w.Validate(fields); err != nil {
		return domain.PaymentFragment{}, err
	}
	phone := strings.TrimSpace(fields[FieldWalletPhone])
	// The contact phone was already validated in the details step.
	if phone == "" {
		phone = pc.ContactPhone
	}
	summary := w.label
	if digits := onlyDigits(phone); len(digits) >= 4 {
		summary += " ****" + digits[len(digits)-4:]
	}
	return domain.PaymentFragment{
		Method:        w.id,
		MaskedSummary: summary,
		Simulated:     true,
		QRCodeRef:     w.qrCodeRef,
		Attributes:    map[string]string{"mode": "test"},
	}, nil
}
