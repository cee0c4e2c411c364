package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/rs/zerolog/log"
)

const (
	FamilyRecommend = "recommend"
	FamilyClothing  = "clothing"
	FamilyOutfits   = "outfits"
	FamilySearch    = "search"
	FamilyHealth    = "health"
	FamilyDefault   = "default"
)

var familyTTL = map[string]time.Duration{
	FamilyRecommend: 600 * time.Second,
	FamilyClothing:  300 * time.Second,
	FamilyOutfits:   300 * time.Second,
	FamilySearch:    180 * time.Second,
	FamilyHealth:    60 * time.Second,
	FamilyDefault:   120 * time.Second,
}

func FamilyTTL(family string) time.Duration {
	if ttl, ok := familyTTL[family]; ok {
		return ttl
	}
	return familyTTL[FamilyDefault]
}

type CachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// ResponseCacheProvider reads and writes under keys returned by Key, so a
// lookup and the write that follows it share one family generation.
type ResponseCacheProvider interface {
	Key(family, key string) string
	Get(ctx context.Context, family, key string) (*CachedResponse, bool)
	Set(ctx context.Context, family, key string, response *CachedResponse)
	Invalidate(families ...string)
}

// ResponseCache stores rendered GET responses in ristretto through gocache.
// Invalidating a family bumps its generation, which is part of every key,
// so older entries are never read again and age out on their TTL.
type ResponseCache struct {
	client *ristretto.Cache
	cache  *cache.Cache[*CachedResponse]

	mu          sync.Mutex
	generations map[string]uint64
}

func NewResponseCache() (*ResponseCache, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     64 << 20, // bytes of cached bodies
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	ristrettoStore := ristretto_store.NewRistretto(client)
	return &ResponseCache{
		client:      client,
		cache:       cache.New[*CachedResponse](ristrettoStore),
		generations: map[string]uint64{},
	}, nil
}

// Key qualifies key with the current generation of family.
func (rc *ResponseCache) Key(family, key string) string {
	rc.mu.Lock()
	generation := rc.generations[family]
	rc.mu.Unlock()
	return fmt.Sprintf("%s:%d:%s", family, generation, key)
}

func (rc *ResponseCache) Get(ctx context.Context, family, key string) (*CachedResponse, bool) {
	response, err := rc.cache.Get(ctx, key)
	if err != nil || response == nil {
		CacheRequests.WithLabelValues(family, "miss").Inc()
		return nil, false
	}
	CacheRequests.WithLabelValues(family, "hit").Inc()
	return response, true
}

func (rc *ResponseCache) Set(ctx context.Context, family, key string, response *CachedResponse) {
	err := rc.cache.Set(ctx, key, response,
		store.WithExpiration(FamilyTTL(family)),
		store.WithCost(int64(len(response.Body))+1),
	)
	if err != nil {
		log.Warn().Err(err).Str("family", family).Msg("Response cache set failed")
		return
	}
	// ristretto applies sets asynchronously
	rc.client.Wait()
}

func (rc *ResponseCache) Invalidate(families ...string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, family := range families {
		rc.generations[family]++
	}
}

var _ ResponseCacheProvider = (*ResponseCache)(nil)
