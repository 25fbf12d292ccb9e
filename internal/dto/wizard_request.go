package dto

type CreateWizardRequest struct {
	ServiceType string `json:"serviceType"`
	ItemID      string `json:"itemId"`
}

type PartyRequest struct {
	Category string `json:"category"`
	Delta    int    `json:"delta"`
}

type ToggleUnitRequest struct {
	UnitID string `json:"unitId"`
}

type UnitCountRequest struct {
	Count int `json:"count"`
}

// DatesRequest takes calendar dates as YYYY-MM-DD. End is empty for
// single-day services.
type DatesRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type PassengerRequest struct {
	Type                string `json:"type"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	DateOfBirth         string `json:"dateOfBirth"`
	IdentityDocument    string `json:"identityDocument"`
	SpecialRequirements string `json:"specialRequirements"`
}

type ContactRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type DetailsRequest struct {
	Passengers []PassengerRequest `json:"passengers"`
	Contact    ContactRequest     `json:"contact"`
}

type PaymentRequest struct {
	MethodID string            `json:"methodId"`
	Fields   map[string]string `json:"fields"`
}
