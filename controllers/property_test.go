package controllers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCacheKey(t *testing.T) {
	t.Run("deterministic regardless of param order", func(t *testing.T) {
		a := url.Values{}
		a.Set("city", "Austin")
		a.Set("price[lte]", "2000")

		b := url.Values{}
		b.Set("price[lte]", "2000")
		b.Set("city", "Austin")

		assert.Equal(t, generateCacheKey("property", "u1", a), generateCacheKey("property", "u1", b))
	})

	t.Run("differs per user", func(t *testing.T) {
		q := url.Values{"city": []string{"Austin"}}
		assert.NotEqual(t, generateCacheKey("property", "u1", q), generateCacheKey("property", "u2", q))
	})

	t.Run("differs per query", func(t *testing.T) {
		a := url.Values{"city": []string{"Austin"}}
		b := url.Values{"city": []string{"Dallas"}}
		assert.NotEqual(t, generateCacheKey("property", "u1", a), generateCacheKey("property", "u1", b))
	})

	t.Run("prefix scopes the namespace", func(t *testing.T) {
		q := url.Values{}
		propKey := generateCacheKey("property", "u1", q)
		matchKey := generateCacheKey("matches", "u1", q)
		assert.NotEqual(t, propKey, matchKey)
		assert.Contains(t, propKey, "property:")
		assert.Contains(t, matchKey, "matches:")
	})
}

func TestValidateGeo(t *testing.T) {
	lat := 40.7128
	lng := -74.0060
	badLat := 91.0
	badLng := -181.0

	require.NoError(t, validateGeo(nil, nil))
	require.NoError(t, validateGeo(&lat, &lng))

	assert.Error(t, validateGeo(&lat, nil))
	assert.Error(t, validateGeo(nil, &lng))
	assert.Error(t, validateGeo(&badLat, &lng))
	assert.Error(t, validateGeo(&lat, &badLng))
}
