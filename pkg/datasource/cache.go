package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/chartdesk/pkg/metrics"
	"github.com/c9s/chartdesk/pkg/types"
	"github.com/c9s/chartdesk/pkg/util/backoff"
)

var log = logrus.WithField("component", "datasource")

const DefaultCacheExpiry = 5 * time.Minute

type seriesWithTime struct {
	updatedAt time.Time
	series    types.Series
}

// CachedFetcher memoizes the series of the wrapped fetcher by query key.
// Failed fetches are retried and never cached.
type CachedFetcher struct {
	sync.Mutex

	fetcher    Fetcher
	expiry     time.Duration
	retry      bool
	maxRetries uint64
	source     string

	series map[string]seriesWithTime
}

type CacheOption func(c *CachedFetcher)

func WithExpiry(d time.Duration) CacheOption {
	return func(c *CachedFetcher) {
		c.expiry = d
	}
}

// WithRetry retries a failed fetch with exponential backoff.
func WithRetry(maxRetries uint64) CacheOption {
	return func(c *CachedFetcher) {
		c.retry = maxRetries > 0
		c.maxRetries = maxRetries
	}
}

// WithSourceName labels the fetch metrics.
func WithSourceName(name string) CacheOption {
	return func(c *CachedFetcher) {
		c.source = name
	}
}

func NewCachedFetcher(fetcher Fetcher, options ...CacheOption) *CachedFetcher {
	c := &CachedFetcher{
		fetcher: fetcher,
		expiry:  DefaultCacheExpiry,
		source:  "default",
		series:  make(map[string]seriesWithTime),
	}

	for _, option := range options {
		option(c)
	}

	return c
}

func (c *CachedFetcher) IsOutdated(key string) bool {
	c.Lock()
	defer c.Unlock()

	data, ok := c.series[key]
	return !ok || time.Since(data.updatedAt) > c.expiry
}

func (c *CachedFetcher) Get(key string) (types.Series, bool) {
	c.Lock()
	defer c.Unlock()

	data, ok := c.series[key]
	if !ok {
		return types.Series{}, false
	}

	copied := data.series
	copied.Points = append([]types.DataPoint(nil), data.series.Points...)
	return copied, true
}

func (c *CachedFetcher) Set(key string, series types.Series) {
	c.Lock()
	defer c.Unlock()

	c.series[key] = seriesWithTime{
		updatedAt: time.Now(),
		series:    series,
	}
}

// Invalidate drops every memoized series.
func (c *CachedFetcher) Invalidate() {
	c.Lock()
	c.series = make(map[string]seriesWithTime)
	c.Unlock()
}

func (c *CachedFetcher) Fetch(ctx context.Context, q Query) (types.Series, error) {
	if err := q.Validate(); err != nil {
		return types.Series{}, err
	}

	key := q.Key()
	if !c.IsOutdated(key) {
		if series, ok := c.Get(key); ok {
			metrics.FetchTotal.WithLabelValues(c.source, "cached").Inc()
			return series, nil
		}
	}

	var series types.Series
	op := func() (err error) {
		series, err = c.fetcher.Fetch(ctx, q)
		if err != nil && errors.Is(err, ErrSeriesNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	var err error
	if c.retry {
		err = backoff.Retry(ctx, c.maxRetries, op)
	} else {
		err = op()
	}

	if err != nil {
		metrics.FetchTotal.WithLabelValues(c.source, "error").Inc()
		return types.Series{}, err
	}

	log.Debugf("fetched %s: %d points", key, series.Len())
	metrics.FetchTotal.WithLabelValues(c.source, "ok").Inc()
	c.Set(key, series)
	return series, nil
}
