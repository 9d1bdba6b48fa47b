package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stresscheck/internal/common/logger"
	"stresscheck/internal/common/metrics"
)

// CachedClassifier memoizes results in Redis. Cache failures fall through to
// the wrapped classifier and are only logged.
type CachedClassifier struct {
	next   Classifier
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedClassifier(next Classifier, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedClassifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedClassifier{next: next, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedClassifier) Name() string { return c.next.Name() }

type cachedScore struct {
	Neg float64 `json:"neg"`
	Pos float64 `json:"pos"`
}

// CacheKey is sentiment:<backend>:<sha256(text)>:<maxLength>.
func CacheKey(backend, text string, maxLength int) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("sentiment:%s:%s:%d", backend, hex.EncodeToString(sum[:]), maxLength)
}

func (c *CachedClassifier) Classify(ctx context.Context, text string, maxLength int) (float64, float64, error) {
	key := CacheKey(c.next.Name(), text, maxLength)

	raw, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var hit cachedScore
		if jsonErr := json.Unmarshal([]byte(raw), &hit); jsonErr == nil && ValidDistribution(hit.Neg, hit.Pos) {
			metrics.ClassifierCacheLookups.WithLabelValues("hit").Inc()
			return hit.Neg, hit.Pos, nil
		}
		metrics.ClassifierCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("discarding corrupt sentiment cache entry", map[string]interface{}{"key": key})
	case stderrors.Is(err, redis.Nil):
		metrics.ClassifierCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.ClassifierCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("sentiment cache read failed", map[string]interface{}{"key": key, "error": err})
	}

	neg, pos, err := c.next.Classify(ctx, text, maxLength)
	if err != nil {
		return 0, 0, err
	}

	payload, _ := json.Marshal(cachedScore{Neg: neg, Pos: pos})
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("sentiment cache write failed", map[string]interface{}{"key": key, "error": err})
	}
	return neg, pos, nil
}
