package http

import (
	"context"
	"net/http"

	"github.com/fjod/storefront/internal/checkout"
)

type PayPalHandler struct {
	scope   *SessionScope
	service *checkout.Service
}

func NewPayPalHandler(scope *SessionScope, service *checkout.Service) *PayPalHandler {
	return &PayPalHandler{scope: scope, service: service}
}

type CreateOrderRequestDTO struct {
	OrderID string `json:"orderId"`
}

type CreateOrderResponseDTO struct {
	PayPalOrderID string `json:"paypalOrderId"`
}

type GatewayOrderRequestDTO struct {
	PayPalOrderID string `json:"paypalOrderId"`
}

// POST /api/paypal/create-order
func (h *PayPalHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "orderId is required")
		return
	}
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		remoteID, err := h.service.CreateGatewayOrder(ctx, f, req.OrderID)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, CreateOrderResponseDTO{PayPalOrderID: remoteID}, nil
	})
}

// POST /api/paypal/capture-order
func (h *PayPalHandler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	var req GatewayOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PayPalOrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "paypalOrderId is required")
		return
	}
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		result, err := h.service.CaptureGatewayOrder(ctx, f, req.PayPalOrderID)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, result, nil
	})
}

// POST /api/paypal/cancel-order
func (h *PayPalHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req GatewayOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.scope.run(w, r, func(ctx context.Context, f *checkout.Flow) (int, any, error) {
		if err := h.service.CancelGatewayOrder(ctx, f, req.PayPalOrderID); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, map[string]string{"status": "abandoned"}, nil
	})
}
