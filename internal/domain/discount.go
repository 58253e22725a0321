package domain

import "github.com/shopspring/decimal"

// DiscountInfo is produced by the discount redemption flow and only read here.
type DiscountInfo struct {
	Code           string          `json:"code"`
	Valid          bool            `json:"valid"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalTotal     decimal.Decimal `json:"finalTotal"`
}

// Consistent reports whether the cached result still matches the given subtotal and
// shipping: finalTotal = subtotal + shipping - discountAmount.
func (d *DiscountInfo) Consistent(subtotal, shipping decimal.Decimal) bool {
	if d == nil || !d.Valid {
		return false
	}
	return subtotal.Add(shipping).Sub(d.DiscountAmount).Equal(d.FinalTotal)
}
