package departures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

var feedNow = time.Unix(1709280000, 0)

func stopUpdate(stopID string, at int64, delay int32) *gtfs.TripUpdate_StopTimeUpdate {
	return &gtfs.TripUpdate_StopTimeUpdate{
		StopId:    proto.String(stopID),
		Departure: &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(at), Delay: proto.Int32(delay)},
	}
}

func tripUpdate(id, route string, updates ...*gtfs.TripUpdate_StopTimeUpdate) *gtfs.FeedEntity {
	return &gtfs.FeedEntity{
		Id: proto.String(id),
		TripUpdate: &gtfs.TripUpdate{
			Trip:           &gtfs.TripDescriptor{TripId: proto.String(id), RouteId: proto.String(route)},
			StopTimeUpdate: updates,
		},
	}
}

func buildFeed(t *testing.T, entities ...*gtfs.FeedEntity) []byte {
	t.Helper()
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(uint64(feedNow.Unix())),
		},
		Entity: entities,
	}
	data, err := proto.Marshal(feed)
	require.NoError(t, err)
	return data
}

func TestParseFeed(t *testing.T) {
	now := feedNow.Unix()
	data := buildFeed(t,
		tripUpdate("t1", "U3",
			stopUpdate("de:09162:6:1:1", now+600, 120),
			stopUpdate("de:09162:500", now+900, 120),
		),
		tripUpdate("t2", "U6",
			stopUpdate("de:09162:6:2:2", now+120, 0),
			stopUpdate("de:09162:620", now+600, 0),
		),
		tripUpdate("t3", "U1",
			stopUpdate("de:09162:6", now-60, 0),
		),
		&gtfs.FeedEntity{Id: proto.String("vehicle-only")},
	)

	records, err := ParseFeed(data, "de:09162:6", feedNow)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "U6", records[0]["label"])
	assert.Equal(t, "de:09162:620", records[0]["destination"])
	assert.Equal(t, "2:2", records[0]["platform"])

	assert.Equal(t, "U3", records[1]["label"])
	assert.Equal(t, (now+600)*1000, records[1]["realtimeDepartureTime"])
	assert.Equal(t, (now+480)*1000, records[1]["plannedDepartureTime"])
	assert.Equal(t, int64(2), records[1]["delayInMinutes"])
	assert.Equal(t, true, records[1]["realtime"])

	d, ok := Transform(records[1], feedNow)
	require.True(t, ok)
	assert.Equal(t, "U3", d.Line)
	assert.Equal(t, 10, d.Minutes)
	assert.Equal(t, 2, d.DelayMinutes)
}

func TestParseFeed_ArrivalFallback(t *testing.T) {
	now := feedNow.Unix()
	data := buildFeed(t, tripUpdate("t1", "L",
		&gtfs.TripUpdate_StopTimeUpdate{
			StopId:  proto.String("L08N"),
			Arrival: &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(now + 300)},
		},
	))

	records, err := ParseFeed(data, "L08", feedNow)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "N", records[0]["platform"])
}

func TestParseFeed_Invalid(t *testing.T) {
	_, err := ParseFeed([]byte("not a protobuf"), "x", feedNow)
	assert.Error(t, err)
}

func TestMatchStop(t *testing.T) {
	tests := []struct {
		stopID   string
		station  string
		platform string
		ok       bool
	}{
		{"de:09162:6", "de:09162:6", "", true},
		{"de:09162:6:1:1", "de:09162:6", "1:1", true},
		{"de:09162:60", "de:09162:6", "", false},
		{"L08N", "L08", "N", true},
		{"L08S", "L08", "S", true},
		{"L08X", "L08", "", false},
		{"", "L08", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.stopID, func(t *testing.T) {
			platform, ok := matchStop(tt.stopID, tt.station)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.platform, platform)
		})
	}
}

func TestGTFSRTSource_Departures(t *testing.T) {
	data := buildFeed(t, tripUpdate("t1", "17", stopUpdate("de:09162:2", feedNow.Unix()+60, 0)))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	s := NewGTFSRTSource(srv.URL, time.Second)
	s.now = func() time.Time { return feedNow }

	records, err := s.Departures(context.Background(), "de:09162:2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "17", records[0]["label"])
}

func TestGTFSRTSource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewGTFSRTSource(srv.URL, time.Second).Departures(context.Background(), "x")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}
