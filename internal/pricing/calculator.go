// Package pricing turns a selection into a price breakdown. Everything here is
// pure: the same selection and item always produce the same breakdown.
package pricing

import (
	"fmt"
	"math"

	"waypoint/internal/domain"
)

const (
	DefaultTaxRatePercent    = 5.0
	DefaultChildPricePercent = 75.0
)

type Calculator struct {
	TaxRatePercent    float64
	ChildPricePercent float64
	// TaxExempt lists services whose unit prices already include tax.
	TaxExempt map[domain.ServiceType]bool
}

func NewCalculator(taxRatePercent, childPricePercent float64, taxExempt ...domain.ServiceType) *Calculator {
	exempt := make(map[domain.ServiceType]bool, len(taxExempt))
	for _, s := range taxExempt {
		exempt[s] = true
	}
	return &Calculator{
		TaxRatePercent:    taxRatePercent,
		ChildPricePercent: childPricePercent,
		TaxExempt:         exempt,
	}
}

// Default uses 5% tax, children at 75% of the adult fare and tax-inclusive
// hotel rates.
func Default() *Calculator {
	return NewCalculator(DefaultTaxRatePercent, DefaultChildPricePercent, domain.ServiceHotel)
}

// ChildPrice is the fare charged for a child given the adult base price.
func (c *Calculator) ChildPrice(base int64) int64 {
	return percentOf(base, c.ChildPricePercent)
}

// Compute prices a selection. The order is fixed for every service:
// subtotal, then discount, then tax on the discounted subtotal.
func (c *Calculator) Compute(sel domain.Selection, item domain.CatalogItem) domain.PriceBreakdown {
	var pb domain.PriceBreakdown

	if sel.ServiceType.PerPerson() {
		c.perPersonTotals(&pb, sel, item)
	} else {
		c.perUnitTotals(&pb, sel)
	}

	for _, s := range item.Surcharges {
		amount := s.Amount
		if s.PerPerson {
			amount *= int64(sel.Party.Seated())
		}
		if amount <= 0 {
			continue
		}
		pb.Surcharges = append(pb.Surcharges, domain.SurchargeLine{Name: s.Name, Amount: amount})
		pb.SurchargeTotal += amount
	}

	pb.Subtotal = pb.BasePrice + pb.SurchargeTotal
	if item.Promotion != nil {
		pb.PromotionCode = item.Promotion.Code
		pb.DiscountAmount = Discount(pb.Subtotal, *item.Promotion)
	}

	pb.TaxableAmount = pb.Subtotal - pb.DiscountAmount
	if !c.TaxExempt[sel.ServiceType] {
		pb.TaxRatePercent = c.TaxRatePercent
		pb.TaxAmount = percentOf(pb.TaxableAmount, c.TaxRatePercent)
	}

	pb.FinalTotal = pb.TaxableAmount + pb.TaxAmount
	if pb.FinalTotal < 0 {
		pb.FinalTotal = 0
	}
	return pb
}

func (c *Calculator) perPersonTotals(pb *domain.PriceBreakdown, sel domain.Selection, item domain.CatalogItem) {
	childPrice := c.ChildPrice(item.BasePrice)
	lines := []domain.CategoryTotal{
		{Label: string(domain.CategoryAdult), Quantity: sel.Party.Adults, UnitPrice: item.BasePrice},
		{Label: string(domain.CategoryChild), Quantity: sel.Party.Children, UnitPrice: childPrice},
		{Label: string(domain.CategoryInfant), Quantity: sel.Party.Infants, UnitPrice: 0},
	}
	for i := range lines {
		lines[i].Total = lines[i].UnitPrice * int64(lines[i].Quantity)
		pb.BasePrice += lines[i].Total
	}
	pb.PerCategoryTotals = lines
}

// perUnitTotals prices hotel rooms as rate times nights. A selection without
// a check-out date is priced for a single night.
func (c *Calculator) perUnitTotals(pb *domain.PriceBreakdown, sel domain.Selection) {
	nights := sel.Dates.Nights()
	if nights < 1 {
		nights = 1
	}
	pb.PerCategoryTotals = make([]domain.CategoryTotal, 0, len(sel.ChosenUnits))
	for _, u := range sel.ChosenUnits {
		total := u.Price * int64(nights)
		pb.PerCategoryTotals = append(pb.PerCategoryTotals, domain.CategoryTotal{
			Label:     fmt.Sprintf("%s x %d nights", u.Name, nights),
			Quantity:  nights,
			UnitPrice: u.Price,
			Total:     total,
		})
		pb.BasePrice += total
	}
}

// Discount never exceeds the subtotal and is never negative.
func Discount(subtotal int64, promo domain.Promotion) int64 {
	if subtotal <= 0 || promo.Value <= 0 {
		return 0
	}
	var d int64
	switch promo.Kind {
	case domain.PromotionPercentage:
		d = percentOf(subtotal, promo.Value)
	case domain.PromotionFlat:
		d = int64(math.Round(promo.Value))
	default:
		return 0
	}
	if d > subtotal {
		d = subtotal
	}
	return d
}

func percentOf(amount int64, pct float64) int64 {
	return int64(math.Round(float64(amount) * pct / 100))
}
