package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

func hotelItem() domain.CatalogItem {
	return domain.CatalogItem{
		ID:          "h-1",
		ServiceType: domain.ServiceHotel,
		Name:        "Riverside Hotel",
		Units: []domain.Unit{
			{ID: "r1", Name: "101", Kind: domain.UnitRoom, Capacity: 2, Price: 500000, Available: true},
			{ID: "r2", Name: "102", Kind: domain.UnitRoom, Capacity: 2, Price: 500000, Available: true},
			{ID: "r3", Name: "103", Kind: domain.UnitRoom, Capacity: 3, Price: 700000, Available: true},
			{ID: "r4", Name: "104", Kind: domain.UnitRoom, Capacity: 2, Price: 500000, Available: false},
		},
		Available: true,
	}
}

func flightItem() domain.CatalogItem {
	return domain.CatalogItem{
		ID:          "f-1",
		ServiceType: domain.ServiceFlight,
		BasePrice:   1000000,
		Units: []domain.Unit{
			{ID: "1A", Name: "1A", Kind: domain.UnitSeat, Capacity: 1, Available: true},
			{ID: "1B", Name: "1B", Kind: domain.UnitSeat, Capacity: 1, Available: true},
			{ID: "1C", Name: "1C", Kind: domain.UnitSeat, Capacity: 1, Available: true},
		},
		Available: true,
	}
}

func TestToggleUnit_ScenarioD_ThirdRoomRejectedUntilOneIsReleased(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)
	require.NoError(t, s.SetRequestedUnits(2))

	_, err := s.ToggleUnit("r1")
	require.NoError(t, err)
	_, err = s.ToggleUnit("r2")
	require.NoError(t, err)

	_, err = s.ToggleUnit("r3")
	assert.ErrorIs(t, err, ErrMaxUnitsReached)
	assert.Equal(t, []string{"r1", "r2"}, s.Snapshot().UnitIDs())

	res, err := s.ToggleUnit("r1")
	require.NoError(t, err)
	assert.False(t, res.Selected)

	res, err = s.ToggleUnit("r3")
	require.NoError(t, err)
	assert.True(t, res.Selected)
	assert.Equal(t, []string{"r2", "r3"}, s.Snapshot().UnitIDs())
}

func TestToggleUnit_SingleRequestedUnitIsReplaced(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)

	_, err := s.ToggleUnit("r1")
	require.NoError(t, err)

	res, err := s.ToggleUnit("r3")
	require.NoError(t, err)
	require.NotNil(t, res.Replaced)
	assert.Equal(t, "r1", res.Replaced.ID)
	assert.Equal(t, []string{"r3"}, s.Snapshot().UnitIDs())
}

func TestToggleUnit_UnknownAndUnavailable(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)

	_, err := s.ToggleUnit("nope")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	_, err = s.ToggleUnit("r4")
	_, ok = apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestSetPartyCount_RejectsAboveFlightMaximum(t *testing.T) {
	s := New(flightItem(), DefaultPolicies()[domain.ServiceFlight], fixedNow)

	require.NoError(t, s.SetPartyCount(domain.CategoryAdult, 9))
	err := s.SetPartyCount(domain.CategoryChild, 1)

	ce, ok := apperrors.IsCapacityExceededError(err)
	require.True(t, ok)
	assert.Equal(t, 10, ce.Limit)
	assert.Contains(t, ce.Message, "maximum 10 travelers")
	assert.Equal(t, 10, s.Snapshot().Party.Total())
}

func TestSetPartyCount_InfantsNeedAnAdultOnFlights(t *testing.T) {
	s := New(flightItem(), DefaultPolicies()[domain.ServiceFlight], fixedNow)

	require.NoError(t, s.SetPartyCount(domain.CategoryInfant, 1))
	err := s.SetPartyCount(domain.CategoryInfant, 1)

	_, ok := apperrors.IsCapacityExceededError(err)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Snapshot().Party.Infants)
}

func TestSetPartyCount_KeepsAtLeastOneAdult(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)

	err := s.SetPartyCount(domain.CategoryAdult, -1)
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)

	err = s.SetPartyCount(domain.CategoryChild, -1)
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)

	err = s.SetPartyCount("pet", 1)
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestSetPartyCount_FlightSeatsFollowTravelers(t *testing.T) {
	s := New(flightItem(), DefaultPolicies()[domain.ServiceFlight], fixedNow)
	require.NoError(t, s.SetPartyCount(domain.CategoryAdult, 1))
	_, err := s.ToggleUnit("1A")
	require.NoError(t, err)
	_, err = s.ToggleUnit("1B")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Snapshot().RequestedUnits)

	require.NoError(t, s.SetPartyCount(domain.CategoryAdult, -1))

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.RequestedUnits)
	assert.Equal(t, []string{"1A"}, snap.UnitIDs())

	err = s.SetRequestedUnits(3)
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestAdvisory_HotelWarnsButDoesNotBlock(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)
	require.NoError(t, s.SetPartyCount(domain.CategoryAdult, 3))
	require.NoError(t, s.SetDateRange(domain.DateRange{
		Start: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
	}))
	_, err := s.ToggleUnit("r1")
	require.NoError(t, err)

	adv := s.Advisory()
	require.NotNil(t, adv)
	assert.False(t, adv.Blocking)
	assert.Equal(t, 4, adv.Required)
	assert.Equal(t, 2, adv.Available)
	assert.NoError(t, s.Validate())
}

func TestValidate_FlightBlocksOnMissingSeats(t *testing.T) {
	s := New(flightItem(), DefaultPolicies()[domain.ServiceFlight], fixedNow)
	require.NoError(t, s.SetPartyCount(domain.CategoryAdult, 1))
	require.NoError(t, s.SetDateRange(domain.DateRange{Start: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}))
	_, err := s.ToggleUnit("1A")
	require.NoError(t, err)

	err = s.Validate()

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "units", ve.Details[0].Field)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)

	err := s.Validate()

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	fields := make([]string, 0, len(ve.Details))
	for _, d := range ve.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"units", "dates.start", "dates.end"}, fields)
}

func TestSetDateRange_Rules(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)

	err := s.SetDateRange(domain.DateRange{Start: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)})
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 2)

	err = s.SetDateRange(domain.DateRange{
		Start: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)

	err = s.SetDateRange(domain.DateRange{Start: fixedNow()})
	assert.Error(t, err, "hotel needs a check-out date")
}

func TestSetDateRange_TodayInServerZone(t *testing.T) {
	newYork := time.FixedZone("EDT", -4*60*60)
	tests := []struct {
		name    string
		now     time.Time
		start   time.Time
		wantErr bool
	}{
		{"today west of UTC", time.Date(2026, 10, 16, 10, 0, 0, 0, newYork), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), false},
		{"late evening west of UTC", time.Date(2026, 10, 16, 22, 30, 0, 0, newYork), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), false},
		{"yesterday west of UTC", time.Date(2026, 10, 16, 10, 0, 0, 0, newYork), time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), true},
		{"today east of UTC", time.Date(2026, 10, 16, 1, 0, 0, 0, time.FixedZone("ICT", 7*60*60)), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := func() time.Time { return tt.now }
			s := New(flightItem(), DefaultPolicies()[domain.ServiceFlight], now)

			err := s.SetDateRange(domain.DateRange{Start: tt.start})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRestore_RoundTripsSnapshot(t *testing.T) {
	s := New(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow)
	require.NoError(t, s.SetPartyCount(domain.CategoryChild, 1))
	_, err := s.ToggleUnit("r1")
	require.NoError(t, err)

	restored := Restore(hotelItem(), DefaultPolicies()[domain.ServiceHotel], fixedNow, s.Snapshot())

	assert.Equal(t, s.Snapshot(), restored.Snapshot())
}
