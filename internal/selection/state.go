package selection

import (
	"fmt"
	"time"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

type CapacityMode string

const (
	// CapacityBlocking refuses to leave the selection step while the chosen
	// units cannot seat the whole party.
	CapacityBlocking CapacityMode = "blocking"
	// CapacityAdvisory only warns.
	CapacityAdvisory CapacityMode = "advisory"
)

type Policy struct {
	MaxOccupants int
	CapacityMode CapacityMode
}

// DefaultPolicies mirrors the booking flows: flights cap at 10 travelers and
// block on missing seats, hotels allow 20 guests before rooms are chosen and
// only warn, tours block.
func DefaultPolicies() map[domain.ServiceType]Policy {
	return map[domain.ServiceType]Policy{
		domain.ServiceFlight: {MaxOccupants: 10, CapacityMode: CapacityBlocking},
		domain.ServiceHotel:  {MaxOccupants: 20, CapacityMode: CapacityAdvisory},
		domain.ServiceTour:   {MaxOccupants: 20, CapacityMode: CapacityBlocking},
	}
}

var ErrMaxUnitsReached = apperrors.NewCapacityExceededError("maximum number of units already selected", 0)

type ToggleResult struct {
	Selected bool         `json:"selected"`
	Unit     domain.Unit  `json:"unit"`
	Replaced *domain.Unit `json:"replaced,omitempty"`
}

type Advisory struct {
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Blocking  bool   `json:"blocking"`
	Message   string `json:"message"`
}

type State struct {
	item   domain.CatalogItem
	policy Policy
	now    func() time.Time
	sel    domain.Selection
}

func New(item domain.CatalogItem, policy Policy, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	s := &State{
		item:   item,
		policy: policy,
		now:    now,
		sel: domain.Selection{
			ServiceType:    item.ServiceType,
			Party:          domain.PartyCounts{Adults: 1},
			RequestedUnits: 1,
		},
	}
	return s
}

// Restore rebuilds a state from a previously taken snapshot.
func Restore(item domain.CatalogItem, policy Policy, now func() time.Time, sel domain.Selection) *State {
	s := New(item, policy, now)
	s.sel = sel.Clone()
	s.sel.ServiceType = item.ServiceType
	return s
}

func (s *State) Snapshot() domain.Selection {
	return s.sel.Clone()
}

func (s *State) Item() domain.CatalogItem {
	return s.item
}

func (s *State) SetPartyCount(category domain.PartyCategory, delta int) error {
	if !category.IsValid() {
		return apperrors.NewValidationError("unknown traveler category", apperrors.ValidationDetail{
			Field:   "category",
			Message: fmt.Sprintf("category %q is not one of adult, child, infant", category),
		})
	}

	next := s.sel.Party.With(category, s.sel.Party.Get(category)+delta)

	if next.Get(category) < 0 {
		return apperrors.NewValidationError("traveler count cannot be negative", apperrors.ValidationDetail{
			Field:   "party." + string(category),
			Message: "count cannot be negative",
		})
	}
	if next.Adults < 1 {
		return apperrors.NewValidationError("at least one adult is required", apperrors.ValidationDetail{
			Field:   "party.adult",
			Message: "at least one adult is required",
		})
	}
	if s.policy.MaxOccupants > 0 && next.Total() > s.policy.MaxOccupants {
		return apperrors.NewCapacityExceededError(
			fmt.Sprintf("maximum %d travelers per %s booking", s.policy.MaxOccupants, s.sel.ServiceType),
			s.policy.MaxOccupants,
		)
	}
	if s.sel.ServiceType == domain.ServiceFlight && next.Infants > next.Adults {
		return apperrors.NewCapacityExceededError(
			fmt.Sprintf("each infant must travel with an adult: %d infants for %d adults", next.Infants, next.Adults),
			next.Adults,
		)
	}

	s.sel.Party = next
	if s.sel.ServiceType.PerPerson() && len(s.item.Units) > 0 {
		s.setRequested(next.Seated())
	}
	return nil
}

// SetRequestedUnits sets how many rooms the customer asked for. Per-person
// services derive the count from the party instead.
func (s *State) SetRequestedUnits(n int) error {
	if s.sel.ServiceType.PerPerson() {
		return apperrors.NewValidationError("unit count follows the number of travelers", apperrors.ValidationDetail{
			Field:   "requestedUnits",
			Message: "seats are requested per traveler",
		})
	}
	if n < 1 || (len(s.item.Units) > 0 && n > len(s.item.Units)) {
		return apperrors.NewValidationError("invalid room count", apperrors.ValidationDetail{
			Field:   "requestedUnits",
			Message: fmt.Sprintf("room count must be between 1 and %d", max(1, len(s.item.Units))),
		})
	}
	s.setRequested(n)
	return nil
}

func (s *State) setRequested(n int) {
	s.sel.RequestedUnits = n
	if len(s.sel.ChosenUnits) > n {
		s.sel.ChosenUnits = s.sel.ChosenUnits[:n]
	}
}

func (s *State) ToggleUnit(unitID string) (ToggleResult, error) {
	for i, u := range s.sel.ChosenUnits {
		if u.ID == unitID {
			s.sel.ChosenUnits = append(s.sel.ChosenUnits[:i:i], s.sel.ChosenUnits[i+1:]...)
			return ToggleResult{Selected: false, Unit: u}, nil
		}
	}

	unit, ok := s.item.FindUnit(unitID)
	if !ok {
		return ToggleResult{}, apperrors.NewNotFoundError(fmt.Sprintf("unit %s not found", unitID))
	}
	if !unit.Available {
		return ToggleResult{}, apperrors.NewConflictError(fmt.Sprintf("%s %s is no longer available", unit.Kind, unit.Name))
	}

	switch {
	case len(s.sel.ChosenUnits) < s.sel.RequestedUnits:
		s.sel.ChosenUnits = append(s.sel.ChosenUnits, unit)
		return ToggleResult{Selected: true, Unit: unit}, nil
	case s.sel.RequestedUnits == 1 && len(s.sel.ChosenUnits) == 1:
		replaced := s.sel.ChosenUnits[0]
		s.sel.ChosenUnits = []domain.Unit{unit}
		return ToggleResult{Selected: true, Unit: unit, Replaced: &replaced}, nil
	default:
		return ToggleResult{}, ErrMaxUnitsReached
	}
}

func (s *State) SetDateRange(r domain.DateRange) error {
	var details []apperrors.ValidationDetail

	today := calendarDay(s.now())
	switch {
	case r.Start.IsZero():
		details = append(details, apperrors.ValidationDetail{Field: "dates.start", Message: "start date is required"})
	case calendarDay(r.Start).Before(today):
		details = append(details, apperrors.ValidationDetail{Field: "dates.start", Message: "start date cannot be in the past"})
	}

	if s.sel.ServiceType == domain.ServiceHotel && r.End.IsZero() {
		details = append(details, apperrors.ValidationDetail{Field: "dates.end", Message: "check-out date is required"})
	}
	if !r.End.IsZero() && !r.Start.IsZero() && r.Nights() < 1 {
		details = append(details, apperrors.ValidationDetail{Field: "dates.end", Message: "end date must be after start date"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid date range", details...)
	}

	s.sel.Dates = r
	return nil
}

// Advisory reports when the chosen units cannot hold the party. Nothing is
// reported before any unit is chosen.
func (s *State) Advisory() *Advisory {
	if len(s.sel.ChosenUnits) == 0 {
		return nil
	}
	required := s.sel.Party.Total()
	if s.sel.ServiceType.PerPerson() {
		required = s.sel.Party.Seated()
	}
	available := s.sel.ChosenCapacity()
	if available >= required {
		return nil
	}
	return &Advisory{
		Required:  required,
		Available: available,
		Blocking:  s.policy.CapacityMode == CapacityBlocking,
		Message:   fmt.Sprintf("selected %ss hold %d of %d travelers", s.sel.ChosenUnits[0].Kind, available, required),
	}
}

// Validate is the guard for leaving the selection step. All problems are
// reported together.
func (s *State) Validate() error {
	var details []apperrors.ValidationDetail

	if s.sel.Party.Total() <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "party", Message: "at least one traveler is required"})
	}
	if len(s.item.Units) > 0 && len(s.sel.ChosenUnits) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "units", Message: "select at least one " + string(s.item.Units[0].Kind)})
	}
	if len(s.sel.ChosenUnits) > s.sel.RequestedUnits {
		details = append(details, apperrors.ValidationDetail{Field: "units", Message: "more units selected than requested"})
	}
	if s.sel.Dates.Start.IsZero() {
		details = append(details, apperrors.ValidationDetail{Field: "dates.start", Message: "start date is required"})
	}
	if s.sel.ServiceType == domain.ServiceHotel && s.sel.Dates.Nights() < 1 {
		details = append(details, apperrors.ValidationDetail{Field: "dates.end", Message: "stay must be at least one night"})
	}
	if adv := s.Advisory(); adv != nil && adv.Blocking {
		details = append(details, apperrors.ValidationDetail{Field: "units", Message: adv.Message})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("selection incomplete", details...)
	}
	return nil
}

// calendarDay is the date t falls on in its own zone, as UTC midnight, so
// dates read in different zones compare by calendar day.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
