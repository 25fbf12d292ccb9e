// Package validation checks the traveler, contact and card fields entered in
// the wizard. Every check runs; failures are returned together as one
// ValidationError instead of stopping at the first.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern      = regexp.MustCompile(`^(0|\+84)[0-9]{9,10}$`)
	identityPattern   = regexp.MustCompile(`^[A-Z0-9]{8,12}$`)
	cardNumberPattern = regexp.MustCompile(`^[0-9]{16}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])\/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

const (
	childMinAge = 2
	adultMinAge = 12
)

var tagMessages = map[string]string{
	"required":     "is required",
	"personname":   "must be at least 2 characters",
	"bookingemail": "must be a valid email address",
	"vnphone":      "must start with 0 or +84 followed by 9-10 digits",
	"iddoc":        "must be 8-12 uppercase letters or digits",
	"cardnumber":   "card number must have 16 digits",
	"cardexpiry":   "expiry must be in MM/YY format",
	"cvv":          "CVV must be 3 or 4 digits",
	"oneof":        "has an unsupported value",
	"max":          "is too long",
}

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	patterns := map[string]*regexp.Regexp{
		"bookingemail": emailPattern,
		"vnphone":      phonePattern,
		"iddoc":        identityPattern,
		"cardnumber":   cardNumberPattern,
		"cardexpiry":   cardExpiryPattern,
		"cvv":          cvvPattern,
	}
	for tag, re := range patterns {
		re := re
		// Registration only fails on an empty tag or nil func.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= 2
	})

	return &Validator{validate: v, now: now}
}

// Struct validates a tagged struct and returns field details prefixed with
// prefix (e.g. "passengers[0].").
func (v *Validator) Struct(prefix string, s interface{}) []apperrors.ValidationDetail {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperrors.ValidationDetail{{Field: strings.TrimSuffix(prefix, "."), Message: err.Error()}}
	}

	details := make([]apperrors.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed %s validation", fe.Tag())
		}
		details = append(details, apperrors.ValidationDetail{
			Field:   prefix + fe.Field(),
			Message: msg,
		})
	}
	return details
}

// ValidateDetails is the guard for leaving the details step. travelDate is
// the date ages are computed at.
func (v *Validator) ValidateDetails(party domain.PartyCounts, passengers []domain.PassengerRecord, contact domain.Contact, travelDate time.Time) error {
	var details []apperrors.ValidationDetail

	if len(passengers) != party.Total() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "passengers",
			Message: fmt.Sprintf("expected %d travelers, got %d", party.Total(), len(passengers)),
		})
	}

	var declared domain.PartyCounts
	for i, p := range passengers {
		prefix := fmt.Sprintf("passengers[%d].", i)
		details = append(details, v.Struct(prefix, p)...)
		details = append(details, v.checkPassenger(prefix, p, travelDate)...)
		if p.Type.IsValid() {
			declared = declared.With(p.Type, declared.Get(p.Type)+1)
		}
	}
	if len(passengers) == party.Total() && declared != party {
		details = append(details, apperrors.ValidationDetail{
			Field: "passengers",
			Message: fmt.Sprintf("traveler types do not match the selection: %d adults, %d children, %d infants expected",
				party.Adults, party.Children, party.Infants),
		})
	}

	details = append(details, v.Struct("contact.", contact)...)

	if len(details) > 0 {
		return apperrors.NewValidationError("traveler details are invalid", details...)
	}
	return nil
}

func (v *Validator) checkPassenger(prefix string, p domain.PassengerRecord, travelDate time.Time) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail

	if p.Type == domain.CategoryAdult && strings.TrimSpace(p.IdentityDocument) == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   prefix + "identityDocument",
			Message: "identity document is required for adults",
		})
	}

	if p.DateOfBirth.IsZero() {
		return append(details, apperrors.ValidationDetail{Field: prefix + "dateOfBirth", Message: "is required"})
	}
	if p.DateOfBirth.After(v.now()) {
		return append(details, apperrors.ValidationDetail{Field: prefix + "dateOfBirth", Message: "cannot be in the future"})
	}

	if travelDate.IsZero() {
		travelDate = v.now()
	}
	if bracket := AgeCategory(p.DateOfBirth, travelDate); p.Type.IsValid() && bracket != p.Type {
		details = append(details, apperrors.ValidationDetail{
			Field:   prefix + "dateOfBirth",
			Message: fmt.Sprintf("age on travel date falls in the %s bracket, declared %s", bracket, p.Type),
		})
	}
	return details
}

// AgeCategory classifies a traveler by age on the travel date: under 2 is an
// infant, 2 to 11 a child, 12 and over an adult.
func AgeCategory(dob, at time.Time) domain.PartyCategory {
	age := Age(dob, at)
	switch {
	case age < childMinAge:
		return domain.CategoryInfant
	case age < adultMinAge:
		return domain.CategoryChild
	default:
		return domain.CategoryAdult
	}
}

func Age(dob, at time.Time) int {
	years := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		years--
	}
	return years
}

func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

func ValidPhone(s string) bool { return phonePattern.MatchString(s) }
