package departures

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMVGClient(url string, maxRetries int) *MVGClient {
	c := NewMVGClient(url, 2*time.Second, maxRetries)
	c.retryInterval = time.Millisecond
	c.maxRetryInterval = 5 * time.Millisecond
	return c
}

func TestMVGClient_Departures(t *testing.T) {
	var gotPath, gotStation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStation = r.URL.Query().Get("globalId")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"label": "U3", "destination": "Moosach", "transportType": "UBAHN",
			 "plannedDepartureTime": 1709280000000, "realtimeDepartureTime": 1709280060000, "realtime": true}
		]`))
	}))
	defer srv.Close()

	c := newTestMVGClient(srv.URL+"/", 0)
	records, err := c.Departures(context.Background(), "de:09162:6")
	require.NoError(t, err)

	assert.Equal(t, "/departures", gotPath)
	assert.Equal(t, "de:09162:6", gotStation)
	require.Len(t, records, 1)
	assert.Equal(t, "U3", records[0]["label"])
	assert.Equal(t, json.Number("1709280060000"), records[0]["realtimeDepartureTime"])
}

func TestMVGClient_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	records, err := newTestMVGClient(srv.URL, 0).Departures(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestMVGClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	records, err := newTestMVGClient(srv.URL, 3).Departures(context.Background(), "de:09162:6")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestMVGClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestMVGClient(srv.URL, 2).Departures(context.Background(), "de:09162:6")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestMVGClient_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestMVGClient(srv.URL, 5).Departures(context.Background(), "bogus")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMVGClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestMVGClient(srv.URL, 3).Departures(context.Background(), "x")
	assert.ErrorContains(t, err, "decode departures")
}

func TestMVGClient_MissingStationID(t *testing.T) {
	_, err := NewMVGClient("http://unused", time.Second, 0).Departures(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingStationID)
}
