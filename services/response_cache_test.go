package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResponseCacheHitAfterSet(t *testing.T) {
	rc, err := NewResponseCache()
	require.NoError(t, err)
	ctx := context.Background()

	_, ok := rc.Get(ctx, FamilySearch, rc.Key(FamilySearch, "/api/search?q=denim"))
	require.False(t, ok)

	rc.Set(ctx, FamilySearch, rc.Key(FamilySearch, "/api/search?q=denim"), &CachedResponse{Status: 200, ContentType: "application/json", Body: []byte(`{"success":true}`)})

	require.Eventually(t, func() bool {
		response, ok := rc.Get(ctx, FamilySearch, rc.Key(FamilySearch, "/api/search?q=denim"))
		return ok && string(response.Body) == `{"success":true}`
	}, time.Second, 10*time.Millisecond)
}

func TestResponseCacheInvalidateFamily(t *testing.T) {
	rc, err := NewResponseCache()
	require.NoError(t, err)
	ctx := context.Background()

	rc.Set(ctx, FamilyClothing, rc.Key(FamilyClothing, "/api/clothing"), &CachedResponse{Status: 200, Body: []byte("list")})
	rc.Set(ctx, FamilyHealth, rc.Key(FamilyHealth, "/api/health"), &CachedResponse{Status: 200, Body: []byte("ok")})
	require.Eventually(t, func() bool {
		_, a := rc.Get(ctx, FamilyClothing, rc.Key(FamilyClothing, "/api/clothing"))
		_, b := rc.Get(ctx, FamilyHealth, rc.Key(FamilyHealth, "/api/health"))
		return a && b
	}, time.Second, 10*time.Millisecond)

	rc.Invalidate(FamilyClothing)

	_, ok := rc.Get(ctx, FamilyClothing, rc.Key(FamilyClothing, "/api/clothing"))
	require.False(t, ok)
	_, ok = rc.Get(ctx, FamilyHealth, rc.Key(FamilyHealth, "/api/health"))
	require.True(t, ok)
}

func TestResponseCacheStaleKeyAfterInvalidate(t *testing.T) {
	rc, err := NewResponseCache()
	require.NoError(t, err)
	ctx := context.Background()

	// a response rendered before a write is stored after it
	key := rc.Key(FamilyClothing, "/api/clothing")
	rc.Invalidate(FamilyClothing)
	rc.Set(ctx, FamilyClothing, key, &CachedResponse{Status: 200, Body: []byte("stale")})

	_, ok := rc.Get(ctx, FamilyClothing, rc.Key(FamilyClothing, "/api/clothing"))
	require.False(t, ok)

	rc.Set(ctx, FamilyClothing, rc.Key(FamilyClothing, "/api/clothing"), &CachedResponse{Status: 200, Body: []byte("fresh")})
	require.Eventually(t, func() bool {
		response, ok := rc.Get(ctx, FamilyClothing, rc.Key(FamilyClothing, "/api/clothing"))
		return ok && string(response.Body) == "fresh"
	}, time.Second, 10*time.Millisecond)
}

func TestFamilyTTL(t *testing.T) {
	require.Equal(t, 600*time.Second, FamilyTTL(FamilyRecommend))
	require.Equal(t, 60*time.Second, FamilyTTL(FamilyHealth))
	require.Equal(t, 120*time.Second, FamilyTTL("upload"))
}

func TestJoinPublicURL(t *testing.T) {
	require.Equal(t,
		"https://x.supabase.co/storage/v1/object/public/clothing-images/processed_1.png",
		JoinPublicURL("https://x.supabase.co/storage/v1/object/public", "https://s3", "clothing-images", "processed_1.png"),
	)
	require.Equal(t,
		"https://s3/clothing-images/clothes/a%20b.png",
		JoinPublicURL("", "https://s3", "clothing-images", "clothes/a b.png"),
	)
}
