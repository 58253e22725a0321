// Package paypal talks to a PayPal-style hosted checkout REST API: client-credential
// tokens, remote order creation and capture.
package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const StatusCompleted = "COMPLETED"

var (
	ErrGateway            = errors.New("payment gateway error")
	ErrInvalidRate        = errors.New("conversion rate must be positive")
	ErrMissingRemoteID    = errors.New("gateway returned no order id")
	ErrMissingCredentials = errors.New("gateway client id and secret are required")
)

// Gateway is what the checkout needs from the hosted payment provider.
type Gateway interface {
	AccessToken(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (string, error)
	CaptureOrder(ctx context.Context, token, remoteOrderID string) (string, error)
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type CreateOrderRequest struct {
	ReferenceID string
	Amount      decimal.Decimal
	Currency    string
}

type Client struct {
	cfg     Config
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Accept", "application/json")

	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        "paypal",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Client{cfg: cfg, http: rc, breaker: cb}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) AccessToken(ctx context.Context) (string, error) {
	var out tokenResponse
	_, err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
			SetFormData(map[string]string{"grant_type": "client_credentials"}).
			SetResult(&out).
			Post("/v1/oauth2/token")
	})
	if err != nil {
		return "", fmt.Errorf("get access token: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("get access token: %w: empty token", ErrGateway)
	}
	return out.AccessToken, nil
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Amount      amount `json:"amount"`
}

type createOrderBody struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (string, error) {
	body := createOrderBody{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: req.ReferenceID,
			Amount:      amount{CurrencyCode: req.Currency, Value: req.Amount.StringFixed(2)},
		}},
	}

	var out orderResponse
	_, err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetBody(body).
			SetResult(&out).
			Post("/v2/checkout/orders")
	})
	if err != nil {
		return "", fmt.Errorf("create remote order: %w", err)
	}
	if out.ID == "" {
		return "", ErrMissingRemoteID
	}
	return out.ID, nil
}

// CaptureOrder returns the gateway's capture status. Interpreting it is up to the caller.
func (c *Client) CaptureOrder(ctx context.Context, token, remoteOrderID string) (string, error) {
	var out orderResponse
	_, err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetHeader("Content-Type", "application/json").
			SetPathParam("id", remoteOrderID).
			SetResult(&out).
			Post("/v2/checkout/orders/{id}/capture")
	})
	if err != nil {
		return "", fmt.Errorf("capture remote order %s: %w", remoteOrderID, err)
	}
	return out.Status, nil
}

// do runs a request through the breaker. 4xx answers are returned as errors but do not
// count against the gateway's health.
func (c *Client) do(call func() (*resty.Response, error)) (*resty.Response, error) {
	var clientErr error
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		resp, err := call()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode(), resp.String())
		}
		if resp.IsError() {
			clientErr = fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode(), resp.String())
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, ErrGateway) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	if clientErr != nil {
		return nil, clientErr
	}
	return resp, nil
}

// ConvertAmount turns a local-currency total into the gateway currency, rounded to cents.
func ConvertAmount(total, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return total.Div(rate).Round(2), nil
}
