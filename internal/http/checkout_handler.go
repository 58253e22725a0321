package http

import (
	"context"
	"net/http"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CheckoutHandler struct {
	scope   *SessionScope
	service *checkout.Service
}

func NewCheckoutHandler(scope *SessionScope, service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{scope: scope, service: service}
}

type SelectMethodRequestDTO struct {
	Method string `json:"method"`
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		return http.StatusOK, h.service.Begin(ctx, f), nil
	})
}

// POST /api/v1/checkout/address
func (h *CheckoutHandler) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	var addr domain.ShippingAddress
	if !decodeJSON(w, r, &addr) {
		return
	}
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		summary, err := h.service.SubmitAddress(ctx, f, addr)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, summary, nil
	})
}

// POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		summary, err := h.service.Back(ctx, f)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, summary, nil
	})
}

// POST /api/v1/checkout/payment-method
func (h *CheckoutHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	var req SelectMethodRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		sel, err := h.service.SelectMethod(ctx, f, req.Method)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, sel, nil
	})
}

// GET /api/v1/checkout/sinpe
func (h *CheckoutHandler) SinpeInstructions(w http.ResponseWriter, r *http.Request) {
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		return http.StatusOK, h.service.SinpeInstructions(ctx, f), nil
	})
}

// POST /api/v1/checkout/sinpe
func (h *CheckoutHandler) SubmitSinpe(w http.ResponseWriter, r *http.Request) {
	var details domain.SinpeDetails
	if !decodeJSON(w, r, &details) {
		return
	}
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		result, err := h.service.SubmitSinpe(ctx, f, details)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, result, nil
	})
}

// POST /api/v1/checkout/{method}/submit
func (h *CheckoutHandler) SubmitPlaceholder(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		if err := h.service.SubmitPlaceholder(ctx, f, method); err != nil {
			return 0, nil, err
		}
		return http.StatusAccepted, map[string]string{"method": method}, nil
	})
}
