package cart

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeToken_EmptyCartHasNoToken(t *testing.T) {
	assert.Equal(t, "", EncodeToken(nil))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	lines := []domain.CartLine{
		{Product: product(7, 100), Quantity: 2},
		{Product: product(3, 250), Quantity: 1},
	}

	token := EncodeToken(lines)
	require.NotEmpty(t, token)
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	entries, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, []domain.TokenEntry{{ID: 7, Qty: 2}, {ID: 3, Qty: 1}}, entries)
}

func TestDecodeToken_Invalid(t *testing.T) {
	_, err := DecodeToken("%%%not-base64")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = DecodeToken(base64.RawURLEncoding.EncodeToString([]byte(`{"id":1}`)))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeToken_DropsNonPositiveEntries(t *testing.T) {
	token := base64.RawURLEncoding.EncodeToString([]byte(`[{"id":1,"qty":0},{"id":0,"qty":3},{"id":2,"qty":4}]`))
	entries, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, []domain.TokenEntry{{ID: 2, Qty: 4}}, entries)
}

func TestDecodeToken_RejectsOversizedToken(t *testing.T) {
	_, err := DecodeToken(strings.Repeat("A", maxTokenLength+1))
	assert.ErrorIs(t, err, ErrInvalidToken)

	lines := make([]domain.CartLine, MaxTokenEntries+1)
	for i := range lines {
		lines[i] = domain.CartLine{Product: product(int64(i+1), 100), Quantity: 1}
	}
	token := EncodeToken(lines)
	require.LessOrEqual(t, len(token), maxTokenLength)
	_, err = DecodeToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	entries, err := DecodeToken(EncodeToken(lines[:MaxTokenEntries]))
	require.NoError(t, err)
	assert.Len(t, entries, MaxTokenEntries)
}
