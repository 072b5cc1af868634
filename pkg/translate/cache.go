package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/voxlate/voxlate/pkg/kv"
)

// cachePrefix roots all translation entries in the store's key space.
const cachePrefix = "cache"

// cachedResult is the stored form of one finished translation.
type cachedResult struct {
	Text      string    `json:"text" msgpack:"text"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
}

// ResultCache persists finished translations keyed by source code,
// target code, weight precision and a hash of the input text. Decoding
// is deterministic, so a hit can be returned without touching the model.
//
// The cache is best-effort: lookup and store errors are logged and
// otherwise ignored. A translation never fails because of the cache.
type ResultCache struct {
	store  kv.Store
	logger *slog.Logger
}

// CacheOption configures a ResultCache.
type CacheOption func(*ResultCache)

// WithCacheLogger sets the logger. Defaults to slog.Default().
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *ResultCache) {
		c.logger = logger
	}
}

// NewResultCache creates a cache on the given store. The store stays
// owned by the caller; closing it is not the cache's job.
func NewResultCache(store kv.Store, opts ...CacheOption) *ResultCache {
	c := &ResultCache{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// key builds the store key for one request. The text itself never
// appears in the key, only its hash.
func (c *ResultCache) key(srcCode, tgtCode string, precision Precision, text string) kv.Key {
	sum := sha256.Sum256([]byte(text))
	return kv.Key{cachePrefix, srcCode, tgtCode, string(precision), hex.EncodeToString(sum[:16])}
}

// Get looks up a previous translation of text.
func (c *ResultCache) Get(ctx context.Context, srcCode, tgtCode string, precision Precision, text string) (string, bool) {
	data, err := c.store.Get(ctx, c.key(srcCode, tgtCode, precision, text))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			c.logger.Warn("translation cache lookup failed", "error", err)
		}
		return "", false
	}
	var res cachedResult
	if err := msgpack.Unmarshal(data, &res); err != nil {
		c.logger.Warn("translation cache entry corrupt, ignoring", "error", err)
		return "", false
	}
	return res.Text, true
}

// Put stores a finished translation of text.
func (c *ResultCache) Put(ctx context.Context, srcCode, tgtCode string, precision Precision, text, translated string) {
	data, err := msgpack.Marshal(cachedResult{
		Text:      translated,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn("translation cache encode failed", "error", err)
		return
	}
	if err := c.store.Set(ctx, c.key(srcCode, tgtCode, precision, text), data); err != nil {
		c.logger.Warn("translation cache store failed", "error", err)
	}
}

// Len counts the cached translations.
func (c *ResultCache) Len(ctx context.Context) (int, error) {
	n := 0
	for _, err := range c.store.List(ctx, kv.Key{cachePrefix}) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// Clear removes every cached translation and reports how many were
// dropped.
func (c *ResultCache) Clear(ctx context.Context) (int, error) {
	var keys []kv.Key
	for entry, err := range c.store.List(ctx, kv.Key{cachePrefix}) {
		if err != nil {
			return 0, err
		}
		keys = append(keys, entry.Key)
	}
	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
