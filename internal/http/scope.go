package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/session"
	"github.com/rs/zerolog/log"
)

type discountInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// requestLocation carries the cart token the client sent along, in the ?cart= query or the
// X-Cart-Token header.
type requestLocation struct {
	token string
}

func (l *requestLocation) CartToken() string         { return l.token }
func (l *requestLocation) SetCartToken(token string) { l.token = token }
func (l *requestLocation) RemoveCartToken()          { l.token = "" }

func locationFrom(r *http.Request) *requestLocation {
	token := r.URL.Query().Get("cart")
	if token == "" {
		token = r.Header.Get(CartTokenHeader)
	}
	return &requestLocation{token: token}
}

// SessionScope loads the browsing session and its cart for one request and writes both
// back afterwards.
type SessionScope struct {
	sessions  *session.Manager
	catalog   cart.ProductLookup
	rows      cart.RowStore
	discounts discountInvalidator
	timeout   time.Duration
}

func NewSessionScope(sessions *session.Manager, catalog cart.ProductLookup, rows cart.RowStore, discounts discountInvalidator, timeout time.Duration) *SessionScope {
	return &SessionScope{
		sessions:  sessions,
		catalog:   catalog,
		rows:      rows,
		discounts: discounts,
		timeout:   timeout,
	}
}

type scopedHandler func(ctx context.Context, f *checkout.Flow) (int, any, error)

func (sc *SessionScope) run(w http.ResponseWriter, r *http.Request, fn scopedHandler) {
	ctx, cancel := context.WithTimeout(r.Context(), sc.timeout)
	defer cancel()

	sid := getSessionID(r.Context())
	identity := getIdentity(r.Context())

	var (
		status int
		body   any
		fnErr  error
		token  string
	)
	err := sc.sessions.Do(ctx, sid, func(s *session.Session) error {
		store := cart.NewStore(s.Lines)

		opts := []cart.Option{cart.WithRowSync(sc.rows, identity.UserID)}
		if s.TokenReconciled {
			opts = append(opts, cart.AlreadyMounted())
		}
		if identity.Authenticated() && s.RowsReconciledFor == identity.UserID {
			opts = append(opts, cart.RowsAlreadyMounted())
		}
		bridge := cart.NewBridge(store, sc.catalog, locationFrom(r), opts...)
		bridge.Mount(ctx)

		changed := false
		store.Subscribe(func([]domain.CartLine) { changed = true })

		status, body, fnErr = fn(ctx, &checkout.Flow{Session: s, Cart: store, Identity: identity})

		bridge.Flush(ctx)
		if changed {
			// an order written earlier in this checkout snapshots the old cart
			if prev := s.Wizard.OrderID; s.DropPendingOrder() {
				log.Info().Str("order_id", prev).Str("session_id", s.ID).Msg("cart changed, previous pending order abandoned")
			}
			if sc.discounts != nil {
				if err := sc.discounts.Invalidate(ctx, s.ID); err != nil {
					log.Warn().Err(err).Str("session_id", s.ID).Msg("failed to invalidate discount after cart change")
				}
			}
		}

		s.Lines = store.Lines()
		s.TokenReconciled = bridge.Mounted()
		if bridge.RowsMounted() {
			s.RowsReconciledFor = identity.UserID
		}
		token = cart.EncodeToken(s.Lines)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sid).Msg("session store unavailable")
		respondError(w, http.StatusServiceUnavailable, "session_unavailable", "session could not be loaded")
		return
	}

	if token != "" {
		w.Header().Set(CartTokenHeader, token)
	}
	if fnErr != nil {
		handleServiceError(w, fnErr)
		return
	}
	respondJSON(w, status, body)
}
