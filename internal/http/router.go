package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	PayPal   *PayPalHandler
	Orders   *OrdersHandler

	JWT *JWTValidator
	// PaymentLimiter guards the endpoints that reach the payment gateway or write orders.
	PaymentLimiter *RateLimiter
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(IdentityMiddleware(cfg.JWT))
	r.Use(SessionMiddleware)
	r.Use(LoggerMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limited := func(r chi.Router) chi.Router {
		if cfg.PaymentLimiter == nil {
			return r
		}
		return r.With(cfg.PaymentLimiter.Middleware)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", cfg.Checkout.GetCheckout)
			r.Post("/address", cfg.Checkout.SubmitAddress)
			r.Post("/back", cfg.Checkout.Back)
			r.Post("/payment-method", cfg.Checkout.SelectMethod)
			r.Get("/sinpe", cfg.Checkout.SinpeInstructions)
			limited(r).Post("/sinpe", cfg.Checkout.SubmitSinpe)
			r.Post("/{method}/submit", cfg.Checkout.SubmitPlaceholder)
		})
		r.Get("/orders/{order_id}", cfg.Orders.GetOrder)
	})

	r.Route("/api/paypal", func(r chi.Router) {
		if cfg.PaymentLimiter != nil {
			r.Use(cfg.PaymentLimiter.Middleware)
		}
		r.Post("/create-order", cfg.PayPal.CreateOrder)
		r.Post("/capture-order", cfg.PayPal.CaptureOrder)
		r.Post("/cancel-order", cfg.PayPal.CancelOrder)
	})

	return otelhttp.NewHandler(r, "storefront")
}
