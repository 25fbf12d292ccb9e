package domain

import "time"

type PartyCategory string

const (
	CategoryAdult  PartyCategory = "adult"
	CategoryChild  PartyCategory = "child"
	CategoryInfant PartyCategory = "infant"
)

func (c PartyCategory) IsValid() bool {
	switch c {
	case CategoryAdult, CategoryChild, CategoryInfant:
		return true
	}
	return false
}

type PartyCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (p PartyCounts) Total() int {
	return p.Adults + p.Children + p.Infants
}

// Seated counts travelers that need their own seat. Infants travel on a lap.
func (p PartyCounts) Seated() int {
	return p.Adults + p.Children
}

func (p PartyCounts) Get(c PartyCategory) int {
	switch c {
	case CategoryAdult:
		return p.Adults
	case CategoryChild:
		return p.Children
	case CategoryInfant:
		return p.Infants
	}
	return 0
}

func (p PartyCounts) With(c PartyCategory, n int) PartyCounts {
	switch c {
	case CategoryAdult:
		p.Adults = n
	case CategoryChild:
		p.Children = n
	case CategoryInfant:
		p.Infants = n
	}
	return p
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`
}

// Nights is the number of nights between check-in and check-out, zero when
// the range has no end.
func (d DateRange) Nights() int {
	if d.End.IsZero() || !d.End.After(d.Start) {
		return 0
	}
	start := truncateDay(d.Start)
	end := truncateDay(d.End)
	return int(end.Sub(start).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// Selection holds the in-progress choices of one booking attempt.
type Selection struct {
	ServiceType    ServiceType `json:"serviceType"`
	Dates          DateRange   `json:"dates"`
	Party          PartyCounts `json:"party"`
	RequestedUnits int         `json:"requestedUnits"`
	ChosenUnits    []Unit      `json:"chosenUnits"`
}

func (s Selection) ChosenCapacity() int {
	total := 0
	for _, u := range s.ChosenUnits {
		total += u.Capacity
	}
	return total
}

func (s Selection) HasUnit(id string) bool {
	for _, u := range s.ChosenUnits {
		if u.ID == id {
			return true
		}
	}
	return false
}

func (s Selection) UnitIDs() []string {
	ids := make([]string, len(s.ChosenUnits))
	for i, u := range s.ChosenUnits {
		ids[i] = u.ID
	}
	return ids
}

// Clone returns a copy that does not share the unit slice.
func (s Selection) Clone() Selection {
	clone := s
	clone.ChosenUnits = append([]Unit(nil), s.ChosenUnits...)
	return clone
}
