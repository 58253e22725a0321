package cart

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/rs/zerolog/log"
)

// Location is the navigable place a cart token is attached to (a URL query, a header).
type Location interface {
	CartToken() string
	SetCartToken(token string)
	RemoveCartToken()
}

// ProductLookup resolves token entries back into products. Missing ids are simply absent
// from the result.
type ProductLookup interface {
	FetchProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

// RowStore persists the cart of an authenticated user on the server.
type RowStore interface {
	ListCartRows(ctx context.Context, userID string) ([]domain.CartRow, error)
	ReplaceCartRows(ctx context.Context, userID string, rows []domain.CartRow) error
}

// Bridge keeps the store and its out-of-band representations in step: the cart token on
// the location, and the cart rows of an authenticated user.
type Bridge struct {
	store    *Store
	catalog  ProductLookup
	location Location

	rows   RowStore
	userID string

	mounted     bool
	rowsMounted bool
	rowsDirty   bool
}

type Option func(*Bridge)

// WithRowSync mirrors the cart into rows for an authenticated user. Guests are never synced.
func WithRowSync(rows RowStore, userID string) Option {
	return func(b *Bridge) {
		if rows != nil && userID != "" && userID != domain.GuestUserID {
			b.rows = rows
			b.userID = userID
		}
	}
}

// AlreadyMounted marks a bridge whose session has reconciled its token before.
func AlreadyMounted() Option {
	return func(b *Bridge) {
		b.mounted = true
	}
}

// RowsAlreadyMounted marks a bridge whose session has already reconciled the rows of the
// current user.
func RowsAlreadyMounted() Option {
	return func(b *Bridge) {
		b.rowsMounted = true
	}
}

func NewBridge(store *Store, catalog ProductLookup, location Location, opts ...Option) *Bridge {
	b := &Bridge{
		store:    store,
		catalog:  catalog,
		location: location,
	}
	for _, opt := range opts {
		opt(b)
	}
	store.Subscribe(b.onChange)
	return b
}

func (b *Bridge) Mounted() bool {
	return b.mounted
}

// RowsMounted reports whether the rows of the synced user have been reconciled.
func (b *Bridge) RowsMounted() bool {
	return b.rows != nil && b.rowsMounted
}

// Mount reconciles the cart. The token step runs once per session; the rows step runs once
// per signed-in user, so a guest session that logs in still picks up the saved cart. A
// token on the location wins over persisted rows, and neither ever overwrites a non-empty
// in-memory cart.
func (b *Bridge) Mount(ctx context.Context) {
	if !b.mounted {
		b.mounted = true
		if token := b.location.CartToken(); token != "" && b.store.IsEmpty() {
			b.restoreFromToken(ctx, token)
		}
	}
	if b.rows != nil && !b.rowsMounted {
		b.rowsMounted = true
		if b.store.IsEmpty() {
			b.restoreFromRows(ctx)
		}
	}
	if b.store.IsEmpty() {
		b.location.RemoveCartToken()
	}
}

// Flush pushes pending row changes. Failures are logged and never returned.
func (b *Bridge) Flush(ctx context.Context) {
	if b.rows == nil || !b.rowsDirty {
		return
	}
	b.rowsDirty = false

	lines := b.store.Lines()
	rows := make([]domain.CartRow, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, domain.CartRow{UserID: b.userID, ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	if err := b.rows.ReplaceCartRows(ctx, b.userID, rows); err != nil {
		log.Warn().Err(err).Str("user_id", b.userID).Msg("failed to persist cart rows")
	}
}

func (b *Bridge) onChange(lines []domain.CartLine) {
	if !b.mounted {
		return
	}
	if token := EncodeToken(lines); token != "" {
		b.location.SetCartToken(token)
	} else {
		b.location.RemoveCartToken()
	}
	b.rowsDirty = true
}

func (b *Bridge) restoreFromToken(ctx context.Context, token string) {
	entries, err := DecodeToken(token)
	if err != nil {
		log.Warn().Err(err).Msg("discarding undecodable cart token")
		return
	}
	b.rebuild(ctx, entries, "token")
}

func (b *Bridge) restoreFromRows(ctx context.Context) {
	rows, err := b.rows.ListCartRows(ctx, b.userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", b.userID).Msg("failed to load cart rows")
		return
	}
	entries := make([]domain.TokenEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.TokenEntry{ID: r.ProductID, Qty: r.Quantity})
	}
	b.rebuild(ctx, entries, "rows")
	// the rows already hold this content
	b.rowsDirty = false
}

func (b *Bridge) rebuild(ctx context.Context, entries []domain.TokenEntry, source string) {
	if len(entries) == 0 {
		return
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	products, err := b.catalog.FetchProductsByIDs(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("failed to resolve cart products, starting empty")
		return
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]domain.CartLine, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		p, ok := byID[e.ID]
		if !ok {
			dropped++
			continue
		}
		lines = append(lines, domain.CartLine{Product: p, Quantity: e.Qty})
	}
	if dropped > 0 {
		log.Info().Int("dropped", dropped).Str("source", source).Msg("dropped cart lines for unavailable products")
	}
	if len(lines) > 0 {
		b.store.Replace(lines)
	}
}
