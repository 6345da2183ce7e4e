package departures

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/tylerverry/mvg-display/internal/logging"
)

// Result is the envelope the bridge prints: the departures, or an error
// message and an empty list.
type Result struct {
	Error      string   `json:"error,omitempty"`
	Departures []Record `json:"departures"`
}

// Bridge wraps a Source and traces every lookup to a debug log file.
type Bridge struct {
	source Source
	debug  *logging.FileLogger
}

func NewBridge(source Source, debug *logging.FileLogger) *Bridge {
	return &Bridge{source: source, debug: debug}
}

// Departures implements Source.
func (b *Bridge) Departures(ctx context.Context, stationID string) ([]Record, error) {
	b.debug.Printf("BRIDGE START - Station ID: %s", stationID)

	records, err := b.source.Departures(ctx, stationID)
	if err != nil {
		b.debug.Printf("ERROR: %v", err)
		return nil, err
	}

	b.debug.Printf("SUCCESS - Found %d departures", len(records))
	if len(records) > 0 {
		first := records[0]
		if sample, err := json.MarshalIndent(first, "", "  "); err == nil {
			b.debug.Printf("SAMPLE DEPARTURE: %s", sample)
		}
		b.debug.Printf("AVAILABLE FIELDS: %s", strings.Join(fieldNames(first), ", "))
	}

	return records, nil
}

// Query looks up stationID and never fails; errors are reported inside
// the Result.
func (b *Bridge) Query(ctx context.Context, stationID string) Result {
	records, err := b.Departures(ctx, stationID)
	if err != nil {
		return Result{Error: err.Error(), Departures: []Record{}}
	}
	if records == nil {
		records = []Record{}
	}
	return Result{Departures: records}
}

func fieldNames(r Record) []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
