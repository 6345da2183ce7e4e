package departures

import (
	"context"
	"log"
	"sync"
	"time"
)

// Poller periodically refreshes the cache for the stations that have
// live subscribers and signals broadcast after every round.
type Poller struct {
	source    Source
	cache     *DepartureCache
	stations  func() []string
	interval  time.Duration
	broadcast chan<- struct{}
}

func NewPoller(source Source, cache *DepartureCache, stations func() []string, interval time.Duration, broadcast chan<- struct{}) *Poller {
	return &Poller{
		source:    source,
		cache:     cache,
		stations:  stations,
		interval:  interval,
		broadcast: broadcast,
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.pollAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *Poller) pollAll(ctx context.Context) {
	ids := p.stations()
	if len(ids) == 0 {
		return
	}

	type result struct {
		stationID string
		records   []Record
		err       error
	}

	var wg sync.WaitGroup
	results := make(chan result, len(ids))

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			records, err := p.source.Departures(ctx, id)
			results <- result{stationID: id, records: records, err: err}
		}(id)
	}

	wg.Wait()
	close(results)

	updates := make(map[string][]Record)
	for res := range results {
		if res.err != nil {
			log.Printf("[DEPARTURES] station=%s refresh failed: %v", res.stationID, res.err)
			continue
		}
		updates[res.stationID] = res.records
	}

	p.cache.Update(updates, p.interval)

	select {
	case p.broadcast <- struct{}{}:
	default:
	}
}
