package cart

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

var ErrInvalidToken = errors.New("invalid cart token")

const (
	// MaxTokenEntries bounds how many distinct products a token may restore.
	MaxTokenEntries = 100
	maxTokenLength  = 8 << 10
)

// EncodeToken projects the lines to [{id, qty}] and encodes them URL-safe.
// An empty cart has no token.
func EncodeToken(lines []domain.CartLine) string {
	if len(lines) == 0 {
		return ""
	}
	entries := make([]domain.TokenEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, domain.TokenEntry{ID: l.Product.ID, Qty: l.Quantity})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeToken reverses EncodeToken. Entries with a non-positive id or quantity are dropped.
// Oversized tokens are rejected before anything is looked up.
func DecodeToken(token string) ([]domain.TokenEntry, error) {
	if len(token) > maxTokenLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidToken, len(token))
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var entries []domain.TokenEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(entries) > MaxTokenEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrInvalidToken, len(entries))
	}
	valid := entries[:0]
	for _, e := range entries {
		if e.ID > 0 && e.Qty > 0 {
			valid = append(valid, e)
		}
	}
	return valid, nil
}
