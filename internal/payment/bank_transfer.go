package payment

import (
	"fmt"

	"waypoint/internal/domain"
)

type BankDetails struct {
	BankName        string
	AccountNumber   string
	BeneficiaryName string
	ReferencePrefix string
	QRCodeRef       string
}

// BankTransfer takes no input. It hands the customer static account details
// and a reference code built from the prefix and the contact phone.
type BankTransfer struct {
	details BankDetails
}

func NewBankTransfer(details BankDetails) *BankTransfer {
	return &BankTransfer{details: details}
}

func (b *BankTransfer) ID() domain.PaymentMethod { return domain.PaymentBankTransfer }

func (b *BankTransfer) Label() string { return "Bank transfer" }

func (b *BankTransfer) TestMode() bool { return false }

func (b *BankTransfer) Schema() []FieldSpec { return nil }

func (b *BankTransfer) Validate(map[string]string) error { return nil }

func (b *BankTransfer) ReferenceCode(phone string) string {
	return b.details.ReferencePrefix + onlyDigits(phone)
}

func (b *BankTransfer) Serialize(_ map[string]string, pc Context) (domain.PaymentFragment, error) {
	ref := b.ReferenceCode(pc.ContactPhone)
	return domain.PaymentFragment{
		Method:        b.ID(),
		MaskedSummary: fmt.Sprintf("%s transfer, reference %s", b.details.BankName, ref),
		QRCodeRef:     b.details.QRCodeRef,
		Bank: &domain.BankTransferDetails{
			BankName:        b.details.BankName,
			AccountNumber:   b.details.AccountNumber,
			BeneficiaryName: b.details.BeneficiaryName,
			ReferenceCode:   ref,
			QRCodeRef:       b.details.QRCodeRef,
		},
	}, nil
}
