package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is owned by the catalog; checkout only reads it.
type Product struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	NameEN             string          `json:"name_en,omitempty"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Images             []string        `json:"images,omitempty"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// EffectivePrice is the unit price after the product's own discount percentage.
func (p Product) EffectivePrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(p.DiscountPercentage.Div(hundred))
	return p.Price.Mul(factor)
}
