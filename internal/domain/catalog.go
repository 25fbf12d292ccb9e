package domain

type ServiceType string

const (
	ServiceTour   ServiceType = "tour"
	ServiceHotel  ServiceType = "hotel"
	ServiceFlight ServiceType = "flight"
)

func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTour, ServiceHotel, ServiceFlight:
		return true
	}
	return false
}

// PerPerson reports whether the service is priced per traveler rather than
// per unit and night.
func (s ServiceType) PerPerson() bool {
	return s == ServiceTour || s == ServiceFlight
}

type UnitKind string

const (
	UnitRoom UnitKind = "room"
	UnitSeat UnitKind = "seat"
)

// Unit is a bookable sub-resource: a hotel room or a flight seat allocation.
type Unit struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      UnitKind `json:"kind"`
	Capacity  int      `json:"capacity"`
	Price     int64    `json:"price"`
	Available bool     `json:"available"`
}

type PromotionKind string

const (
	PromotionPercentage PromotionKind = "percentage"
	PromotionFlat       PromotionKind = "flat"
)

type Promotion struct {
	Code  string        `json:"code"`
	Kind  PromotionKind `json:"kind"`
	Value float64       `json:"value"`
}

type Surcharge struct {
	Name      string `json:"name"`
	Amount    int64  `json:"amount"`
	PerPerson bool   `json:"perPerson"`
}

// CatalogItem is the bookable item a wizard is opened for.
type CatalogItem struct {
	ID          string      `json:"id"`
	ServiceType ServiceType `json:"serviceType"`
	Name        string      `json:"name"`
	BasePrice   int64       `json:"basePrice"`
	Units       []Unit      `json:"units"`
	Promotion   *Promotion  `json:"promotion,omitempty"`
	Surcharges  []Surcharge `json:"surcharges,omitempty"`
	Available   bool        `json:"available"`
}

func (c CatalogItem) FindUnit(id string) (Unit, bool) {
	for _, u := range c.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}
