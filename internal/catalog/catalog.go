package catalog

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Lookup is the read-only view of the catalog used by checkout.
type Lookup interface {
	FetchProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	FetchProductByID(ctx context.Context, id int64) (*domain.Product, error)
}
