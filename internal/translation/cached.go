package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"medtranslate/internal/cache"
	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// CachedTranslator memoizes successful translations. Cache faults are
// logged and otherwise ignored.
type CachedTranslator struct {
	next  Translator
	cache cache.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedTranslator wraps next with a cache.
func NewCachedTranslator(next Translator, c cache.Client, ttl time.Duration) *CachedTranslator {
	return &CachedTranslator{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   logger.WithComponent("translation-cache"),
	}
}

func (c *CachedTranslator) Translate(ctx context.Context, text, source, target string) (*models.TranslationResult, error) {
	source, target = normalize(source, target)
	key := cacheKey(text, source, target)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var result models.TranslationResult
		if err := json.Unmarshal(raw, &result); err == nil {
			c.log.Debug().Str("key", key).Msg("Translation cache hit")
			return &result, nil
		}
		c.log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn().Err(err).Msg("Translation cache lookup failed")
	}

	result, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("Translation cache store failed")
		}
	}
	return result, nil
}

func cacheKey(text, source, target string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + target + "\x00" + text))
	return "translation:" + hex.EncodeToString(sum[:])
}
