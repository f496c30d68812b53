package dubbing

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"dubber/internal/logging"
)

// Translator maps source text to the target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// TranslationStore is a persistent second tier behind the in-memory cache.
type TranslationStore interface {
	Get(ctx context.Context, targetLang, text string) (string, bool, error)
	Put(ctx context.Context, targetLang, text, translated string) error
}

// CacheStats reports cache effectiveness for one run.
type CacheStats struct {
	Entries   int
	Hits      int64
	Misses    int64
	StoreHits int64
	Calls     int64
}

// TranslationCache memoizes translations by exact source text for one run.
//
// Concurrent requests for the same text are collapsed with singleflight, so
// each distinct text reaches the translator at most once per run: later
// callers either wait for the in-flight call or read the stored result.
// Failed translations are not cached.
type TranslationCache struct {
	translator Translator
	targetLang string
	store      TranslationStore
	logger     *slog.Logger

	mu      sync.RWMutex
	entries map[string]string
	group   singleflight.Group

	hits      atomic.Int64
	misses    atomic.Int64
	storeHits atomic.Int64
	calls     atomic.Int64
}

// NewTranslationCache builds a cache in front of translator. store may be nil.
func NewTranslationCache(translator Translator, targetLang string, store TranslationStore, logger *slog.Logger) *TranslationCache {
	return &TranslationCache{
		translator: translator,
		targetLang: targetLang,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "translation_cache"),
		entries:    make(map[string]string),
	}
}

// Translate returns the cached translation of text or fetches it.
func (c *TranslationCache) Translate(ctx context.Context, text string) (string, error) {
	if translated, ok := c.lookup(text); ok {
		c.hits.Add(1)
		return translated, nil
	}
	c.misses.Add(1)

	result, err, _ := c.group.Do(text, func() (any, error) {
		// A call that finished between lookup and Do has already stored the result.
		if translated, ok := c.lookup(text); ok {
			return translated, nil
		}
		if translated, ok := c.fromStore(ctx, text); ok {
			c.remember(text, translated)
			return translated, nil
		}
		c.calls.Add(1)
		translated, err := c.translator.Translate(ctx, text, c.targetLang)
		if err != nil {
			return "", err
		}
		c.remember(text, translated)
		c.toStore(ctx, text, translated)
		return translated, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Stats returns a snapshot of the cache counters.
func (c *TranslationCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Entries:   entries,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		StoreHits: c.storeHits.Load(),
		Calls:     c.calls.Load(),
	}
}

func (c *TranslationCache) lookup(text string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	translated, ok := c.entries[text]
	return translated, ok
}

func (c *TranslationCache) remember(text, translated string) {
	c.mu.Lock()
	c.entries[text] = translated
	c.mu.Unlock()
}

func (c *TranslationCache) fromStore(ctx context.Context, text string) (string, bool) {
	if c.store == nil {
		return "", false
	}
	translated, ok, err := c.store.Get(ctx, c.targetLang, text)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "translation cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run dubber cache clear if the database is corrupt"),
			logging.String(logging.FieldImpact, "segment translated over the network"),
		)
		return "", false
	}
	if ok {
		c.storeHits.Add(1)
	}
	return translated, ok
}

func (c *TranslationCache) toStore(ctx context.Context, text, translated string) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, c.targetLang, text, translated); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "translation cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache_path permissions"),
			logging.String(logging.FieldImpact, "translation will be fetched again next run"),
		)
	}
}
