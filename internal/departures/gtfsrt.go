package departures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// GTFSRTSource reads departures from a GTFS-Realtime TripUpdates feed.
type GTFSRTSource struct {
	feedURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewGTFSRTSource(feedURL string, timeout time.Duration) *GTFSRTSource {
	return &GTFSRTSource{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (s *GTFSRTSource) Departures(ctx context.Context, stationID string) ([]Record, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil, ErrMissingStationID
	}

	start := time.Now()
	defer func() { fetchDuration.WithLabelValues("gtfsrt").Observe(time.Since(start).Seconds()) }()

	data, err := s.fetch(ctx)
	if err != nil {
		fetchErrorCount.WithLabelValues("gtfsrt").Inc()
		return nil, err
	}

	return ParseFeed(data, stationID, s.now())
}

func (s *GTFSRTSource) fetch(ctx context.Context) ([]byte, error) {
	fetchCount.WithLabelValues("gtfsrt").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.feedURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: s.feedURL}
	}

	return io.ReadAll(resp.Body)
}

// ParseFeed decodes a GTFS-RT feed and returns one record per upcoming
// stop time update at stationID, ordered by departure time. A stop
// matches when its id equals stationID, extends it with ":<platform>", or
// adds a single N/S direction letter.
func ParseFeed(data []byte, stationID string, now time.Time) ([]Record, error) {
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(data, feed); err != nil {
		return nil, fmt.Errorf("decode GTFS-RT feed: %w", err)
	}

	type timed struct {
		at  int64
		rec Record
	}
	var found []timed
	nowUnix := now.Unix()

	for _, entity := range feed.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}

		line := tu.GetTrip().GetRouteId()
		updates := tu.GetStopTimeUpdate()
		if len(updates) == 0 {
			continue
		}
		terminus := updates[len(updates)-1].GetStopId()

		for _, stu := range updates {
			stopID := stu.GetStopId()
			platform, ok := matchStop(stopID, stationID)
			if !ok {
				continue
			}

			event := stu.GetDeparture()
			if event.GetTime() == 0 {
				event = stu.GetArrival()
			}
			at := event.GetTime()
			if at == 0 || at < nowUnix {
				continue
			}
			delay := int64(event.GetDelay())

			found = append(found, timed{at: at, rec: Record{
				"label":                 line,
				"destination":           terminus,
				"tripId":                tu.GetTrip().GetTripId(),
				"stopId":                stopID,
				"platform":              platform,
				"plannedDepartureTime":  (at - delay) * 1000,
				"realtimeDepartureTime": at * 1000,
				"delayInMinutes":        delay / 60,
				"realtime":              true,
			}})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].at < found[j].at })

	records := make([]Record, 0, len(found))
	for _, f := range found {
		records = append(records, f.rec)
	}
	return records, nil
}

// matchStop reports whether stopID belongs to stationID and returns the
// platform or direction part of the stop id, if any.
func matchStop(stopID, stationID string) (string, bool) {
	switch {
	case stopID == "":
		return "", false
	case stopID == stationID:
		return "", true
	case strings.HasPrefix(stopID, stationID+":"):
		return strings.TrimPrefix(stopID, stationID+":"), true
	case len(stopID) == len(stationID)+1 && strings.HasPrefix(stopID, stationID):
		dir := stopID[len(stopID)-1:]
		if dir == "N" || dir == "S" {
			return dir, true
		}
	}
	return "", false
}
