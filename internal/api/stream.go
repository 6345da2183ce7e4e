package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tylerverry/mvg-display/internal/departures"
)

const keepAliveInterval = 15 * time.Second

type Client struct {
	stops map[string]bool
	send  chan []byte
}

// SSEHub pushes the cached departures of each client's stations whenever
// the poller signals a refresh.
type SSEHub struct {
	cache     *departures.DepartureCache
	source    departures.Source
	interval  time.Duration
	clients   map[*Client]struct{}
	mu        sync.RWMutex
	broadcast <-chan struct{}
	now       func() time.Time
}

// NewSSEHub returns a hub reading from cache. Stops a new client asks for
// that are not cached yet are fetched from source and kept for the
// polling interval.
func NewSSEHub(cache *departures.DepartureCache, source departures.Source, interval time.Duration, broadcast <-chan struct{}) *SSEHub {
	return &SSEHub{
		cache:     cache,
		source:    source,
		interval:  interval,
		clients:   make(map[*Client]struct{}),
		broadcast: broadcast,
		now:       time.Now,
	}
}

func (h *SSEHub) Run() {
	for range h.broadcast {
		h.push()
	}
}

func (h *SSEHub) push() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		data, err := h.payload(client.stops)
		if err != nil {
			continue
		}

		select {
		case client.send <- data:
		default:
			// slow client, drop this update
		}
	}
}

func (h *SSEHub) payload(stops map[string]bool) ([]byte, error) {
	return json.Marshal(h.cache.GetForStops(stops, h.now()))
}

// Stops lists every station some client is subscribed to.
func (h *SSEHub) Stops() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := make(map[string]bool)
	for client := range h.clients {
		for stop := range client.stops {
			set[stop] = true
		}
	}

	stops := make([]string, 0, len(set))
	for stop := range set {
		stops = append(stops, stop)
	}
	sort.Strings(stops)
	return stops
}

func (h *SSEHub) HandleStream(c *gin.Context) {
	stopsParam := c.QueryArray("stops")
	if len(stopsParam) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide at least one stops parameter"})
		return
	}

	stops := make(map[string]bool)
	for _, s := range stopsParam {
		stops[s] = true
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	client := &Client{
		stops: stops,
		send:  make(chan []byte, 10),
	}

	h.register(client)
	defer h.unregister(client)

	h.fill(c.Request.Context(), stops)

	if initial, err := h.payload(stops); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", initial)
		w.Flush()
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case data := <-client.send:
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			w.Flush()
		}
	}
}

// fill fetches the stops that have nothing cached so the first frame is
// not empty while the poller has yet to pick them up.
func (h *SSEHub) fill(ctx context.Context, stops map[string]bool) {
	if h.source == nil {
		return
	}

	updates := make(map[string][]departures.Record)
	for stop := range stops {
		if _, ok := h.cache.Get(stop); ok {
			continue
		}
		records, err := h.source.Departures(ctx, stop)
		if err != nil {
			log.Printf("[STREAM] station=%s initial fetch failed: %v", stop, err)
			continue
		}
		updates[stop] = records
	}

	if len(updates) > 0 {
		h.cache.Update(updates, h.interval)
	}
}

func (h *SSEHub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *SSEHub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	close(c.send)
}
