package domain

type CategoryTotal struct {
	Label     string `json:"label"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Total     int64  `json:"total"`
}

type SurchargeLine struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// PriceBreakdown is derived from a Selection and never stored on its own.
// FinalTotal = BasePrice + SurchargeTotal - DiscountAmount + TaxAmount.
type PriceBreakdown struct {
	BasePrice         int64           `json:"basePrice"`
	PerCategoryTotals []CategoryTotal `json:"perCategoryTotals"`
	Surcharges        []SurchargeLine `json:"surcharges"`
	SurchargeTotal    int64           `json:"surchargeTotal"`
	Subtotal          int64           `json:"subtotal"`
	PromotionCode     string          `json:"promotionCode,omitempty"`
	DiscountAmount    int64           `json:"discountAmount"`
	TaxableAmount     int64           `json:"taxableAmount"`
	TaxRatePercent    float64         `json:"taxRatePercent"`
	TaxAmount         int64           `json:"taxAmount"`
	FinalTotal        int64           `json:"finalTotal"`
}
