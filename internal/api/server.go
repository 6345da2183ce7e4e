package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tylerverry/mvg-display/internal/config"
	"github.com/tylerverry/mvg-display/internal/departures"
	"github.com/tylerverry/mvg-display/internal/stations"
)

const defaultGroupLimit = 4

// Handlers holds what the HTTP handlers need.
type Handlers struct {
	DB         *stations.StationDB
	Source     departures.Source
	Cache      *departures.DepartureCache
	Hub        *SSEHub
	Directions map[string]config.DirectionConfig
	StaticDir  string
	Now        func() time.Time
}

func NewServer(port int, h *Handlers) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func NewRouter(h *Handlers) *gin.Engine {
	if h.Now == nil {
		h.Now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"*"},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if h.Hub != nil {
		r.GET("/stream", h.Hub.HandleStream)
	}

	api := r.Group("/api")
	api.GET("/stations", h.searchStations)
	api.GET("/departures/:stationId", h.getDepartures)
	api.GET("/departures/:stationId/grouped", h.getGroupedDepartures)

	r.NoRoute(h.fallback)

	return r
}

func (h *Handlers) searchStations(c *gin.Context) {
	results, err := h.DB.Search(c.Query("query"))
	if errors.Is(err, stations.ErrQueryTooShort) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a search query (min 2 characters)"})
		return
	}
	if err != nil {
		log.Printf("[SERVER] Error serving stations data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stations data"})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handlers) getDepartures(c *gin.Context) {
	stationID := c.Param("stationId")

	records, err := h.fetch(c.Request.Context(), stationID)
	if err != nil {
		log.Printf("[SERVER] Error fetching departures for %s: %v", stationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch departures data"})
		return
	}

	deps := departures.TransformAll(records, h.Now())
	deps = departures.FilterByModes(deps, c.DefaultQuery("modes", departures.AllModes))

	c.JSON(http.StatusOK, gin.H{"departures": deps})
}

func (h *Handlers) getGroupedDepartures(c *gin.Context) {
	stationID := c.Param("stationId")

	limit := defaultGroupLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			limit = n
		}
	}

	records, err := h.fetch(c.Request.Context(), stationID)
	if err != nil {
		log.Printf("[SERVER] Error fetching grouped departures for %s: %v", stationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to fetch grouped departures",
			"message":    err.Error(),
			"direction1": []departures.Departure{},
			"direction2": []departures.Departure{},
		})
		return
	}

	deps := departures.TransformAll(records, h.Now())
	deps = departures.FilterByModes(deps, c.DefaultQuery("modes", departures.AllModes))

	grouped := departures.GroupByDirection(deps, stationID, h.Directions)
	c.JSON(http.StatusOK, grouped.Limit(limit))
}

// fetch answers from the cache when possible and fills it otherwise.
func (h *Handlers) fetch(ctx context.Context, stationID string) ([]departures.Record, error) {
	if h.Cache != nil {
		if records, ok := h.Cache.Get(stationID); ok {
			return records, nil
		}
	}

	records, err := h.Source.Departures(ctx, stationID)
	if err != nil {
		return nil, err
	}

	if h.Cache != nil {
		h.Cache.Set(stationID, records)
	}
	return records, nil
}

// fallback serves static frontend files and index.html for client side
// routes. Unknown API paths get a JSON 404.
func (h *Handlers) fallback(c *gin.Context) {
	p := c.Request.URL.Path
	if strings.HasPrefix(p, "/api/") {
		log.Printf("[SERVER] Unmatched API route: %s", p)
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found: " + p})
		return
	}

	if h.StaticDir == "" || c.Request.Method != http.MethodGet {
		c.Status(http.StatusNotFound)
		return
	}

	file := filepath.Join(h.StaticDir, filepath.FromSlash(path.Clean("/"+p)))
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		c.File(file)
		return
	}

	c.File(filepath.Join(h.StaticDir, "index.html"))
}
