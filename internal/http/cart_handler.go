package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxQuantity = 99

type CartHandler struct {
	scope   *SessionScope
	catalog catalog.Lookup
}

func NewCartHandler(scope *SessionScope, lookup catalog.Lookup) *CartHandler {
	return &CartHandler{scope: scope, catalog: lookup}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"total_items"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
}

func cartView(f *checkout.Flow) CartResponseDTO {
	lines := f.Cart.Lines()
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartResponseDTO{
		Lines:      lines,
		TotalItems: f.Cart.TotalItems(),
		Subtotal:   f.Cart.Subtotal(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		return http.StatusOK, cartView(f), nil
	})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		product, err := h.catalog.FetchProductByID(ctx, req.ProductID)
		if err != nil {
			return 0, nil, err
		}
		f.Cart.Add(*product, req.Quantity)
		return http.StatusCreated, cartView(f), nil
	})
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		f.Cart.UpdateQuantity(productID, req.Quantity)
		return http.StatusOK, cartView(f), nil
	})
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		f.Cart.Remove(productID)
		return http.StatusOK, cartView(f), nil
	})
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		f.Cart.Clear()
		return http.StatusOK, cartView(f), nil
	})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
