package cart

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Listener is notified synchronously after every change with a copy of the lines.
type Listener func(lines []domain.CartLine)

// Store owns the cart lines of one browsing session. It never talks to the network.
type Store struct {
	lines     []domain.CartLine
	listeners []Listener
}

func NewStore(lines []domain.CartLine) *Store {
	s := &Store{}
	for _, l := range lines {
		s.merge(l.Product, l.Quantity)
	}
	return s
}

func (s *Store) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Add puts qty units of the product in the cart, merging with an existing line.
// A non-positive qty counts as one unit.
func (s *Store) Add(product domain.Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	s.merge(product, qty)
	s.changed()
}

// UpdateQuantity sets the quantity of an existing line; qty <= 0 removes it.
// Unknown products are ignored.
func (s *Store) UpdateQuantity(productID int64, qty int) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	if qty <= 0 {
		s.removeAt(i)
	} else {
		s.lines[i].Quantity = qty
	}
	s.changed()
}

func (s *Store) Remove(productID int64) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.removeAt(i)
	s.changed()
}

func (s *Store) Clear() {
	if len(s.lines) == 0 {
		return
	}
	s.lines = nil
	s.changed()
}

// Replace swaps the whole content, used when a cart is rebuilt from a token or rows.
func (s *Store) Replace(lines []domain.CartLine) {
	s.lines = nil
	for _, l := range lines {
		s.merge(l.Product, l.Quantity)
	}
	s.changed()
}

func (s *Store) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) IsEmpty() bool {
	return len(s.lines) == 0
}

func (s *Store) TotalItems() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// Subtotal ignores any cached discount code; only per-product discounts apply.
func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (s *Store) merge(product domain.Product, qty int) {
	if qty <= 0 {
		return
	}
	if i := s.index(product.ID); i >= 0 {
		s.lines[i].Quantity += qty
		return
	}
	s.lines = append(s.lines, domain.CartLine{Product: product, Quantity: qty})
}

func (s *Store) index(productID int64) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

func (s *Store) changed() {
	snapshot := s.Lines()
	for _, l := range s.listeners {
		l(snapshot)
	}
}
