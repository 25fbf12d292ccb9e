package domain

type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentVNPay        PaymentMethod = "vnpay"
	PaymentMoMo         PaymentMethod = "momo"
)

// PaymentSelection lives only between the payment step and submission.
type PaymentSelection struct {
	MethodID PaymentMethod     `json:"methodId"`
	Fields   map[string]string `json:"fields,omitempty"`
}

type BankTransferDetails struct {
	BankName        string `json:"bankName"`
	AccountNumber   string `json:"accountNumber"`
	BeneficiaryName string `json:"beneficiaryName"`
	ReferenceCode   string `json:"referenceCode"`
	QRCodeRef       string `json:"qrCodeRef"`
}

// PaymentFragment is the serialized, secret-free part of a booking request
// describing how the customer pays.
type PaymentFragment struct {
	Method        PaymentMethod        `json:"method"`
	MaskedSummary string               `json:"maskedSummary"`
	Simulated     bool                 `json:"simulated"`
	QRCodeRef     string               `json:"qrCodeRef,omitempty"`
	Bank          *BankTransferDetails `json:"bank,omitempty"`
	Attributes    map[string]string    `json:"attributes,omitempty"`
}
