package departures

import (
	"context"
	"errors"
	"fmt"

	"github.com/tylerverry/mvg-display/internal/config"
)

// Record is one departure exactly as the provider returned it.
type Record map[string]any

// Source returns the upcoming departures for a station.
type Source interface {
	Departures(ctx context.Context, stationID string) ([]Record, error)
}

var ErrMissingStationID = errors.New("station ID required")

// StatusError is returned when the upstream API answers with a non-2xx
// status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// NewSource builds the departure source selected in cfg.
func NewSource(cfg config.DeparturesConfig) (Source, error) {
	switch cfg.Source {
	case config.SourceMVG, "":
		return NewMVGClient(cfg.BaseURL, cfg.Timeout, cfg.MaxRetries), nil
	case config.SourceGTFSRT:
		return NewGTFSRTSource(cfg.GTFSRTURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown departure source %q", cfg.Source)
	}
}
