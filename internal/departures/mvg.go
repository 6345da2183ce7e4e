package departures

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MVGClient queries the public MVG departure API.
type MVGClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int

	// retryInterval is the first wait between attempts; it grows
	// exponentially up to maxRetryInterval.
	retryInterval    time.Duration
	maxRetryInterval time.Duration
}

func NewMVGClient(baseURL string, timeout time.Duration, maxRetries int) *MVGClient {
	return &MVGClient{
		baseURL:          strings.TrimRight(baseURL, "/"),
		httpClient:       &http.Client{Timeout: timeout},
		maxRetries:       maxRetries,
		retryInterval:    500 * time.Millisecond,
		maxRetryInterval: 5 * time.Second,
	}
}

// Departures fetches the departures for stationID. Network errors and
// 5xx responses are retried with exponential backoff; 4xx responses and
// undecodable bodies fail immediately.
func (c *MVGClient) Departures(ctx context.Context, stationID string) ([]Record, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil, ErrMissingStationID
	}

	u := c.baseURL + "/departures?" + url.Values{"globalId": {stationID}}.Encode()

	start := time.Now()
	defer func() { fetchDuration.WithLabelValues("mvg").Observe(time.Since(start).Seconds()) }()

	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.retryInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         c.maxRetryInterval,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	records, err := backoff.RetryNotifyWithData(
		func() ([]Record, error) { return c.fetchOnce(ctx, u) },
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx),
		func(err error, wait time.Duration) {
			log.Printf("[DEPARTURES] station=%s attempt failed, retrying in %s: %v", stationID, wait.Round(time.Millisecond), err)
		},
	)
	if err != nil {
		fetchErrorCount.WithLabelValues("mvg").Inc()
		return nil, err
	}

	return records, nil
}

func (c *MVGClient) fetchOnce(ctx context.Context, u string) ([]Record, error) {
	fetchCount.WithLabelValues("mvg").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, URL: u}
		if resp.StatusCode < 500 {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	var records []Record
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode departures: %w", err))
	}
	if records == nil {
		records = []Record{}
	}

	return records, nil
}
