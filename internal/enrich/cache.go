// Package enrich attaches coordinates and administrative region codes to
// place names. Lookups are memoized per normalized name and persisted to a
// durable store so a restart does not repeat them.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/observability"
	"golang.org/x/sync/singleflight"
)

// National bounding box. Results outside it are treated as wrong matches.
const (
	minLat = 33.0
	maxLat = 39.0
	minLon = 124.0
	maxLon = 132.0
)

// Entry is one cached lookup. Nil fields record a lookup that found nothing.
type Entry struct {
	Key        string   `json:"query"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	RegionCode *int64   `json:"regioncode"`
}

func (e Entry) enrichment() domain.Enrichment {
	return domain.Enrichment{Latitude: e.Latitude, Longitude: e.Longitude, RegionCode: e.RegionCode}
}

// Store persists entries across restarts.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, e Entry) error
}

// Cache memoizes geocoder lookups. Concurrent misses for the same key share
// one upstream call.
type Cache struct {
	geocoder domain.Geocoder
	store    Store
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry
	group   singleflight.Group
}

// New creates a cache and warms it from store. A nil store keeps entries in
// memory only.
func New(ctx context.Context, geocoder domain.Geocoder, store Store, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Cache, error) {
	c := &Cache{
		geocoder: geocoder,
		store:    store,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
		entries:  make(map[string]Entry),
	}
	if store == nil {
		return c, nil
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load geocode cache: %w", err)
	}
	for _, e := range loaded {
		c.entries[e.Key] = e
	}
	logger.Info("geocode cache loaded", "entries", len(c.entries))
	return c, nil
}

var parenthetical = regexp.MustCompile(`\([^)]*\)`)

// Normalize is the cache key for a place name: parentheticals removed and
// whitespace trimmed and collapsed.
func Normalize(name string) string {
	name = parenthetical.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}

// Resolve returns the coordinates and region code for a place name. Fields
// are nil when the place is unknown, outside the country, or the lookup
// failed.
func (c *Cache) Resolve(ctx context.Context, name string) domain.Enrichment {
	key := Normalize(name)
	if key == "" {
		return domain.Enrichment{}
	}
	return c.lookup(ctx, key, func(ctx context.Context) (Entry, bool) {
		return c.geocode(ctx, key)
	}).enrichment()
}

// RegionCode returns only the region code for a place name.
func (c *Cache) RegionCode(ctx context.Context, name string) *int64 {
	return c.Resolve(ctx, name).RegionCode
}

// ResolveFirst tries each name in order and returns the first that
// geocodes. Empty names are skipped.
func (c *Cache) ResolveFirst(ctx context.Context, names ...string) domain.Enrichment {
	for _, name := range names {
		if e := c.Resolve(ctx, name); e.Found() {
			return e
		}
	}
	return domain.Enrichment{}
}

// RegionAt returns the region code for coordinates the source already
// reported. Points outside the country have no region.
func (c *Cache) RegionAt(ctx context.Context, lat, lon float64) *int64 {
	if !inBounds(lat, lon) {
		return nil
	}
	key := "@" + strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
	return c.lookup(ctx, key, func(ctx context.Context) (Entry, bool) {
		e := Entry{Key: key, Latitude: &lat, Longitude: &lon}
		code, err := c.geocoder.RegionCode(ctx, lat, lon)
		if err != nil {
			c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
			c.logger.Warn("region lookup failed", "lat", lat, "lon", lon, "error", err)
			return e, false
		}
		c.metrics.GeocodeRequests.WithLabelValues("found").Inc()
		if code != 0 {
			e.RegionCode = &code
		}
		return e, true
	}).RegionCode
}

// lookup returns the cached entry for key or computes it with miss. miss
// reports whether the result may be persisted.
func (c *Cache) lookup(ctx context.Context, key string, miss func(context.Context) (Entry, bool)) Entry {
	if e, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return e
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	v, _, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.get(key); ok {
			return e, nil
		}
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		e, durable := miss(callCtx)
		e.Key = key
		c.put(ctx, e, durable)
		return e, nil
	})
	return v.(Entry)
}

// geocode resolves a name and, when found, the region at that point.
func (c *Cache) geocode(ctx context.Context, key string) (Entry, bool) {
	e := Entry{Key: key}

	res, err := c.geocoder.Geocode(ctx, key)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocode failed", "query", key, "error", err)
		return e, false
	}
	if !res.Found {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return e, true
	}
	if !inBounds(res.Lat, res.Lon) {
		c.metrics.GeocodeRequests.WithLabelValues("rejected").Inc()
		c.logger.Debug("geocode result outside country", "query", key, "lat", res.Lat, "lon", res.Lon)
		return e, true
	}
	c.metrics.GeocodeRequests.WithLabelValues("found").Inc()

	lat, lon := res.Lat, res.Lon
	e.Latitude, e.Longitude = &lat, &lon

	code, err := c.geocoder.RegionCode(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("region lookup failed", "query", key, "error", err)
		return e, false
	}
	if code != 0 {
		e.RegionCode = &code
	}
	return e, true
}

func (c *Cache) get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) put(ctx context.Context, e Entry, durable bool) {
	c.mu.Lock()
	c.entries[e.Key] = e
	c.mu.Unlock()

	if !durable || c.store == nil {
		return
	}
	if err := c.store.Save(ctx, e); err != nil {
		c.logger.Warn("persist geocode entry failed", "query", e.Key, "error", err)
	}
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func inBounds(lat, lon float64) bool {
	return lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon
}
