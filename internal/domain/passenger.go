package domain

import "time"

type PassengerRecord struct {
	Type                PartyCategory `json:"type" validate:"required,oneof=adult child infant"`
	FirstName           string        `json:"firstName" validate:"required,personname"`
	LastName            string        `json:"lastName" validate:"required,personname"`
	DateOfBirth         time.Time     `json:"dateOfBirth"`
	IdentityDocument    string        `json:"identityDocument,omitempty" validate:"omitempty,iddoc"`
	SpecialRequirements string        `json:"specialRequirements,omitempty" validate:"max=500"`
}

type Contact struct {
	FullName string `json:"fullName" validate:"required,personname"`
	Email    string `json:"email" validate:"required,bookingemail"`
	Phone    string `json:"phone" validate:"required,vnphone"`
}

// Identity is the signed-in customer, used only to prefill the contact step.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Token  string `json:"-"`
}

func (i *Identity) Contact() Contact {
	if i == nil {
		return Contact{}
	}
	return Contact{
		FullName: i.Name,
		Email:    i.Email,
		Phone:    i.Phone,
	}
}
