package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tylerverry/mvg-display/internal/api"
	"github.com/tylerverry/mvg-display/internal/config"
	"github.com/tylerverry/mvg-display/internal/departures"
	"github.com/tylerverry/mvg-display/internal/logging"
	"github.com/tylerverry/mvg-display/internal/stations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	logging.InitLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	stationDB, err := stations.LoadStationDB(cfg.Stations.Output)
	if err != nil {
		log.Printf("Error loading stations from JSON: %v", err)
		stationDB = stations.NewStationDB(nil)
	} else {
		log.Printf("Loaded %d stations from JSON file", stationDB.Len())
	}

	source, err := departures.NewSource(cfg.Departures)
	if err != nil {
		log.Fatalf("Failed to create departure source: %v", err)
	}
	bridge := departures.NewBridge(source, logging.NewFileLogger(cfg.Departures.DebugLog))

	cache := departures.NewDepartureCache(0, cfg.Departures.CacheTTL)
	broadcast := make(chan struct{}, 1)

	hub := api.NewSSEHub(cache, bridge, cfg.Polling.Interval, broadcast)
	poller := departures.NewPoller(bridge, cache, hub.Stops, cfg.Polling.Interval, broadcast)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go hub.Run()
	go poller.Start(ctx)

	server := api.NewServer(cfg.Server.Port, &api.Handlers{
		DB:         stationDB,
		Source:     bridge,
		Cache:      cache,
		Hub:        hub,
		Directions: cfg.Directions,
		StaticDir:  cfg.Server.StaticDir,
	})

	go func() {
		log.Printf("Server running on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
