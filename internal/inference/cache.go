package inference

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vivienda/pkg/metrics"
	"github.com/wonny/vivienda/pkg/redis"
)

// CachedPredictor memoizes predictions in Redis, keyed by artifact ID and row
// contents. Cache failures are logged and the prediction is computed anyway.
type CachedPredictor struct {
	svc   *Service
	cache *redis.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedPredictor wraps svc with a prediction cache
func NewCachedPredictor(svc *Service, cache *redis.Cache, ttl time.Duration, log zerolog.Logger) *CachedPredictor {
	return &CachedPredictor{
		svc:   svc,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "inference.cache").Logger(),
	}
}

type cachedPrediction struct {
	Price float64 `json:"price"`
}

// Predict returns the cached estimate or computes and stores it
func (c *CachedPredictor) Predict(ctx context.Context, fields map[string]any) (float64, error) {
	row, err := c.svc.BuildRow(fields)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("input_error").Inc()
		return 0, err
	}
	key := redis.PredictionKey(c.svc.Meta().ID, row.Key())

	var hit cachedPrediction
	found, err := c.cache.Get(ctx, key, &hit)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Msg("prediction cache lookup failed")
	case found:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		metrics.PredictionsTotal.WithLabelValues("ok").Inc()
		return hit.Price, nil
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	v, err := c.svc.Predict(ctx, fields)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, key, cachedPrediction{Price: v}, c.ttl); err != nil {
		c.log.Warn().Err(err).Msg("prediction cache store failed")
	}
	return v, nil
}
