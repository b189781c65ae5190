// Package embcache is a best-effort cache of query embedding vectors keyed
// by normalized query text. It trims provider calls for repeated queries;
// every miss, decode failure, or store error just means one extra provider
// call, so nothing here returns an error.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// DefaultTTL bounds staleness after a provider model change.
const DefaultTTL = time.Hour

const keyPrefix = domain.KeyPrefix + "embcache:"

// store is the narrow KV surface the cache consumes.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache caches query vectors with a TTL.
type Cache struct {
	kv  store
	ttl time.Duration
}

// New creates a cache. A non-positive ttl falls back to DefaultTTL.
func New(kv store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{kv: kv, ttl: ttl}
}

// Get returns the cached vector for the query, or nil on a miss.
func (c *Cache) Get(ctx context.Context, query string) []float32 {
	data, err := c.kv.Get(ctx, cacheKey(query))
	if err != nil {
		return nil
	}
	return decodeVector(data)
}

// Put stores the vector under the query. Empty vectors are not cached.
func (c *Cache) Put(ctx context.Context, query string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	_ = c.kv.SetWithTTL(ctx, cacheKey(query), encodeVector(vec), c.ttl)
}

// cacheKey hashes the normalized query so arbitrary user text never lands
// in a key.
func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}
