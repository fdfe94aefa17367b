package domain

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageToken_RoundTrip(t *testing.T) {
	for _, offset := range []int{1, 50, 123456} {
		tok := EncodePageToken(offset)
		assert.NotContains(t, tok, "=")
		assert.NotContains(t, tok, "+")
		assert.NotContains(t, tok, "/")

		got, err := ParsePageToken(tok)
		require.NoError(t, err)
		assert.Equal(t, offset, got)
		assert.Equal(t, offset, PageRequest{PageToken: tok}.Offset())
	}
	assert.Empty(t, EncodePageToken(0))
	assert.Empty(t, EncodePageToken(-3))
}

func TestParsePageToken_Invalid(t *testing.T) {
	tests := map[string]string{
		"not_base64":     "%%%",
		"std_padding":    base64.StdEncoding.EncodeToString([]byte("runs:10")),
		"missing_prefix": base64.RawURLEncoding.EncodeToString([]byte("10")),
		"not_a_number":   base64.RawURLEncoding.EncodeToString([]byte("runs:ten")),
		"negative":       base64.RawURLEncoding.EncodeToString([]byte("runs:-5")),
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePageToken(tok)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 0, PageRequest{PageToken: tok}.Offset())
		})
	}

	got, err := ParsePageToken("")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestPageRequest_Limit(t *testing.T) {
	assert.Equal(t, DefaultMaxResults, PageRequest{}.Limit())
	assert.Equal(t, DefaultMaxResults, PageRequest{MaxResults: -1}.Limit())
	assert.Equal(t, 7, PageRequest{MaxResults: 7}.Limit())
	assert.Equal(t, MaxMaxResults, PageRequest{MaxResults: MaxMaxResults + 1}.Limit())
}

func TestNextPageToken(t *testing.T) {
	assert.Equal(t, EncodePageToken(2), NextPageToken(0, 2, 5))
	assert.Equal(t, EncodePageToken(4), NextPageToken(2, 2, 5))
	assert.Empty(t, NextPageToken(4, 2, 5))
	assert.Empty(t, NextPageToken(0, 50, 50))
}
