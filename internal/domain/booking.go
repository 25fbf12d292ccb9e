package domain

import "time"

// BookingRequest is assembled once at submission time and not modified
// afterwards.
type BookingRequest struct {
	IdempotencyKey string            `json:"-"`
	UserID         string            `json:"userId,omitempty"`
	ServiceType    ServiceType       `json:"serviceType"`
	ItemID         string            `json:"itemId"`
	UnitIDs        []string          `json:"unitIds"`
	Dates          DateRange         `json:"dates"`
	Party          PartyCounts       `json:"party"`
	Passengers     []PassengerRecord `json:"passengers"`
	Contact        Contact           `json:"contact"`
	Payment        PaymentFragment   `json:"payment"`
	Price          PriceBreakdown    `json:"price"`
	TotalAmount    int64             `json:"totalAmount"`
	AuthToken      string            `json:"-"`
}

type BookingConfirmation struct {
	BookingID   string `json:"bookingId"`
	BookingCode string `json:"bookingCode"`
	Status      string `json:"status"`
}

// Receipt is the view model shown once a booking succeeded.
type Receipt struct {
	BookingID        string               `json:"bookingId"`
	BookingCode      string               `json:"bookingCode"`
	ServiceType      ServiceType          `json:"serviceType"`
	ItemName         string               `json:"itemName"`
	ContactEmail     string               `json:"contactEmail"`
	PaymentMethod    PaymentMethod        `json:"paymentMethod"`
	MaskedPayment    string               `json:"maskedPayment"`
	Simulated        bool                 `json:"simulated"`
	BankInstructions *BankTransferDetails `json:"bankInstructions,omitempty"`
	Price            PriceBreakdown       `json:"price"`
	IssuedAt         time.Time            `json:"issuedAt"`
}
