package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/validation"
)

func fixedNow() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

func newRegistry() *Registry {
	return NewRegistry(
		NewCreditCard(validation.New(fixedNow), fixedNow),
		NewBankTransfer(BankDetails{
			BankName:        "Vietcombank",
			AccountNumber:   "0071001234567",
			BeneficiaryName: "WAYPOINT TRAVEL JSC",
			ReferencePrefix: "WP",
			QRCodeRef:       "static/qr/bank.png",
		}),
		NewVNPay("static/qr/vnpay.png"),
		NewMoMo("static/qr/momo.png"),
	)
}

func validCard() map[string]string {
	return map[string]string{
		FieldCardNumber: "4111 1111 1111 1234",
		FieldCardHolder: "NGUYEN VAN AN",
		FieldCardExpiry: "12/28",
		FieldCardCVV:    "123",
	}
}

func paymentFields(t *testing.T, err error) []string {
	t.Helper()
	pe, ok := apperrors.IsPaymentValidationError(err)
	require.True(t, ok, "expected PaymentValidationError, got %v", err)
	out := make([]string, 0, len(pe.Details))
	for _, d := range pe.Details {
		out = append(out, d.Field)
	}
	return out
}

func TestRegistry_GetAndList(t *testing.T) {
	r := newRegistry()

	a, err := r.Get(domain.PaymentMoMo)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMoMo, a.ID())

	_, err = r.Get("paypal")
	assert.Equal(t, []string{"methodId"}, paymentFields(t, err))

	var ids []domain.PaymentMethod
	for _, a := range r.List() {
		ids = append(ids, a.ID())
	}
	assert.Equal(t, []domain.PaymentMethod{"bank_transfer", "credit_card", "momo", "vnpay"}, ids)
}

func TestCreditCard_FifteenDigitNumberRejected(t *testing.T) {
	card, _ := newRegistry().Get(domain.PaymentCreditCard)
	fields := validCard()
	fields[FieldCardNumber] = "411111111111123"

	err := card.Validate(fields)

	pe, ok := apperrors.IsPaymentValidationError(err)
	require.True(t, ok)
	require.Len(t, pe.Details, 1)
	assert.Equal(t, FieldCardNumber, pe.Details[0].Field)
	assert.Equal(t, "card number must have 16 digits", pe.Details[0].Message)
}

func TestCreditCard_CollectsAllErrors(t *testing.T) {
	card, _ := newRegistry().Get(domain.PaymentCreditCard)

	err := card.Validate(map[string]string{
		FieldCardNumber: "abcd",
		FieldCardExpiry: "13/28",
		FieldCardCVV:    "12",
	})

	assert.ElementsMatch(t, []string{FieldCardNumber, FieldCardHolder, FieldCardExpiry, FieldCardCVV}, paymentFields(t, err))
}

func TestCreditCard_Expiry(t *testing.T) {
	card, _ := newRegistry().Get(domain.PaymentCreditCard)

	tests := []struct {
		name    string
		expiry  string
		wantErr bool
	}{
		{name: "current month still valid", expiry: "10/26"},
		{name: "next year", expiry: "01/27"},
		{name: "last month expired", expiry: "09/26", wantErr: true},
		{name: "long expired", expiry: "08/20", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validCard()
			fields[FieldCardExpiry] = tt.expiry
			err := card.Validate(fields)
			if tt.wantErr {
				assert.Equal(t, []string{FieldCardExpiry}, paymentFields(t, err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreditCard_SerializeKeepsOnlyLastFour(t *testing.T) {
	card, _ := newRegistry().Get(domain.PaymentCreditCard)

	frag, err := card.Serialize(validCard(), Context{})

	require.NoError(t, err)
	assert.Equal(t, "**** **** **** 1234", frag.MaskedSummary)
	assert.Equal(t, "1234", frag.Attributes["last4"])
	assert.False(t, frag.Simulated)
	for _, v := range frag.Attributes {
		assert.NotContains(t, v, "4111")
		assert.NotEqual(t, "123", v)
	}
}

func TestBankTransfer_Serialize(t *testing.T) {
	bank, _ := newRegistry().Get(domain.PaymentBankTransfer)

	require.NoError(t, bank.Validate(nil))
	frag, err := bank.Serialize(nil, Context{ContactPhone: "+84 912 345 678"})

	require.NoError(t, err)
	require.NotNil(t, frag.Bank)
	assert.Equal(t, "WP84912345678", frag.Bank.ReferenceCode)
	assert.Equal(t, "0071001234567", frag.Bank.AccountNumber)
	assert.Equal(t, "static/qr/bank.png", frag.QRCodeRef)
	assert.False(t, bank.TestMode())
}

func TestWallet_IsLabelledSimulation(t *testing.T) {
	r := newRegistry()
	for _, id := range []domain.PaymentMethod{domain.PaymentVNPay, domain.PaymentMoMo} {
		w, err := r.Get(id)
		require.NoError(t, err)

		frag, err := w.Serialize(nil, Context{ContactPhone: "0912345678"})

		require.NoError(t, err)
		assert.True(t, w.TestMode())
		assert.True(t, frag.Simulated)
		assert.Contains(t, frag.MaskedSummary, "test mode")
		assert.Contains(t, frag.MaskedSummary, "5678")
		assert.NotEmpty(t, frag.QRCodeRef)
	}
}

func TestWallet_RejectsBadPhone(t *testing.T) {
	w, _ := newRegistry().Get(domain.PaymentVNPay)

	err := w.Validate(map[string]string{FieldWalletPhone: "12345"})

	assert.Equal(t, []string{FieldWalletPhone}, paymentFields(t, err))
}

func TestWallet_PhoneFallsBackToContact(t *testing.T) {
	w, _ := newRegistry().Get(domain.PaymentMoMo)
	pc := Context{ContactPhone: "0912345678"}

	require.NoError(t, w.Validate(map[string]string{FieldWalletPhone: "  "}))
	frag, err := w.Serialize(map[string]string{FieldWalletPhone: ""}, pc)
	require.NoError(t, err)
	assert.Contains(t, frag.MaskedSummary, "****5678")

	frag, err = w.Serialize(map[string]string{FieldWalletPhone: "+84987654321"}, pc)
	require.NoError(t, err)
	assert.Contains(t, frag.MaskedSummary, "****4321")
}

func TestPublicFields_DropsSecrets(t *testing.T) {
	card, _ := newRegistry().Get(domain.PaymentCreditCard)

	out := PublicFields(card, validCard())

	assert.Equal(t, map[string]string{FieldCardHolder: "NGUYEN VAN AN", FieldCardExpiry: "12/28"}, out)
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "**** **** **** 4242", MaskCardNumber("4242-4242-4242-4242"))
	assert.Equal(t, "****", MaskCardNumber("12"))
}
