package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartyCounts_Totals(t *testing.T) {
	party := PartyCounts{Adults: 2, Children: 1, Infants: 1}

	assert.Equal(t, 4, party.Total())
	assert.Equal(t, 3, party.Seated())
	assert.Equal(t, 1, party.Get(CategoryInfant))
	assert.Equal(t, 0, party.Get(PartyCategory("pet")))
}

func TestPartyCounts_WithDoesNotMutateReceiver(t *testing.T) {
	party := PartyCounts{Adults: 1}

	updated := party.With(CategoryChild, 2)

	assert.Equal(t, 0, party.Children)
	assert.Equal(t, 2, updated.Children)
	assert.Equal(t, 1, updated.Adults)
}

func TestDateRange_Nights(t *testing.T) {
	checkIn := time.Date(2026, 11, 1, 14, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 11, 4, 11, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, DateRange{Start: checkIn, End: checkOut}.Nights())
	assert.Equal(t, 0, DateRange{Start: checkIn}.Nights())
	assert.Equal(t, 0, DateRange{Start: checkOut, End: checkIn}.Nights())
}

func TestSelection_CloneDoesNotShareUnits(t *testing.T) {
	sel := Selection{
		ServiceType: ServiceHotel,
		ChosenUnits: []Unit{{ID: "r1", Capacity: 2}},
	}

	clone := sel.Clone()
	clone.ChosenUnits[0].ID = "r2"

	assert.Equal(t, "r1", sel.ChosenUnits[0].ID)
	assert.True(t, sel.HasUnit("r1"))
	assert.False(t, sel.HasUnit("r2"))
}

func TestSelection_ChosenCapacityAndIDs(t *testing.T) {
	sel := Selection{ChosenUnits: []Unit{{ID: "r1", Capacity: 2}, {ID: "r2", Capacity: 3}}}

	assert.Equal(t, 5, sel.ChosenCapacity())
	assert.Equal(t, []string{"r1", "r2"}, sel.UnitIDs())
}

func TestCatalogItem_FindUnit(t *testing.T) {
	item := CatalogItem{Units: []Unit{{ID: "deluxe", Price: 500000}}}

	unit, ok := item.FindUnit("deluxe")
	assert.True(t, ok)
	assert.Equal(t, int64(500000), unit.Price)

	_, ok = item.FindUnit("suite")
	assert.False(t, ok)
}

func TestServiceType_Validity(t *testing.T) {
	assert.True(t, ServiceFlight.IsValid())
	assert.True(t, ServiceFlight.PerPerson())
	assert.False(t, ServiceHotel.PerPerson())
	assert.False(t, ServiceType("cruise").IsValid())
}

func TestIdentity_ContactNilSafe(t *testing.T) {
	var id *Identity
	assert.Equal(t, Contact{}, id.Contact())

	id = &Identity{Name: "Nguyen Van An", Email: "an@example.com", Phone: "0912345678"}
	assert.Equal(t, "an@example.com", id.Contact().Email)
}
