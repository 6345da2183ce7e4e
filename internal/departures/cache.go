package departures

import (
	"sort"
	"time"

	"github.com/bluele/gcache"
)

const defaultCacheSize = 1024

// DepartureCache keeps the raw records per station for a fixed TTL.
// Records are stored untransformed so the minutes are recomputed on
// every read.
type DepartureCache struct {
	store gcache.Cache
	ttl   time.Duration
}

// NewDepartureCache returns a cache holding at most size stations. A ttl
// of zero disables caching.
func NewDepartureCache(size int, ttl time.Duration) *DepartureCache {
	return newDepartureCache(size, ttl, gcache.NewRealClock())
}

func newDepartureCache(size int, ttl time.Duration, clock gcache.Clock) *DepartureCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	return &DepartureCache{
		store: gcache.New(size).LRU().Clock(clock).Build(),
		ttl:   ttl,
	}
}

func (c *DepartureCache) Get(stationID string) ([]Record, bool) {
	v, err := c.store.Get(stationID)
	if err != nil {
		return nil, false
	}
	cacheHitCount.Inc()
	return v.([]Record), true
}

func (c *DepartureCache) Set(stationID string, records []Record) {
	if c.ttl <= 0 {
		return
	}
	_ = c.store.SetWithExpire(stationID, records, c.ttl)
}

// Update stores polled departures for every station in updates. They are
// kept for at least two polling intervals, independent of the request
// TTL, so live subscribers see them until the next refresh lands.
func (c *DepartureCache) Update(updates map[string][]Record, interval time.Duration) {
	ttl := max(c.ttl, 2*interval)
	if ttl <= 0 {
		return
	}
	for stationID, records := range updates {
		_ = c.store.SetWithExpire(stationID, records, ttl)
	}
}

// GetForStops transforms the cached departures of all stopIDs and merges
// them, soonest first.
func (c *DepartureCache) GetForStops(stopIDs map[string]bool, now time.Time) []Departure {
	result := []Departure{}
	for stopID := range stopIDs {
		if records, ok := c.Get(stopID); ok {
			result = append(result, TransformAll(records, now)...)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DepartureTime < result[j].DepartureTime
	})

	return result
}
