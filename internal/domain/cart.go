package domain

import "github.com/shopspring/decimal"

type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is price * (1 - discount%/100) * quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TokenEntry is the minimal projection of a cart line carried by a cart token.
type TokenEntry struct {
	ID  int64 `json:"id"`
	Qty int   `json:"qty"`
}

// CartRow is a server-side persisted cart line of an authenticated user.
type CartRow struct {
	UserID    string `json:"user_id" bson:"user_id"`
	ProductID int64  `json:"product_id" bson:"product_id"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}
