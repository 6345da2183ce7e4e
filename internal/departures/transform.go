package departures

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Departure is the display form of a Record.
type Departure struct {
	Line          string `json:"line"`
	Destination   string `json:"destination"`
	Minutes       int    `json:"minutes"`
	DepartureTime int64  `json:"departureTime"` // unix milliseconds
	DelayMinutes  int    `json:"delayMinutes"`
	IsLive        bool   `json:"isLive"`
	Platform      string `json:"platform"`
	Type          string `json:"type"`
}

// Providers report times either in unix seconds or milliseconds; values
// above this are taken as milliseconds.
const millisThreshold = 1e11

// Transform converts a provider record relative to now. The departure
// time is the realtime time when present, otherwise the planned one; a
// record without a usable time departs now.
func Transform(r Record, now time.Time) (Departure, bool) {
	if r == nil {
		return Departure{}, false
	}

	nowSec := now.Unix()

	var at int64
	if v, ok := present(r, "realtimeDepartureTime"); ok {
		at = toUnixSeconds(v)
	} else {
		at = toUnixSeconds(firstTruthy(r, "time", "plannedDepartureTime", "planned"))
	}
	if at <= 0 {
		at = nowSec
	}

	minutes := int(math.Floor(float64(at-nowSec) / 60))
	if minutes < 0 {
		minutes = 0
	}

	delay := 0
	if planned := toUnixSeconds(firstTruthy(r, "planned", "plannedDepartureTime")); planned > 0 && at > planned {
		delay = int(math.Round(float64(at-planned) / 60))
	}

	return Departure{
		Line:          stringOr(firstTruthy(r, "line", "label", "product"), "?"),
		Destination:   stringOr(firstTruthy(r, "destination"), "Unknown"),
		Minutes:       minutes,
		DepartureTime: at * 1000,
		DelayMinutes:  delay,
		IsLive:        truthy(r["realtime"]),
		Platform:      stringOr(firstTruthy(r, "platform"), ""),
		Type:          stringOr(firstTruthy(r, "type", "transportType"), ""),
	}, true
}

// TransformAll transforms records, skipping ones that cannot be shown.
func TransformAll(records []Record, now time.Time) []Departure {
	out := make([]Departure, 0, len(records))
	for _, r := range records {
		if d, ok := Transform(r, now); ok {
			out = append(out, d)
		}
	}
	return out
}

func present(r Record, key string) (any, bool) {
	v, ok := r[key]
	return v, ok && v != nil
}

func firstTruthy(r Record, keys ...string) any {
	for _, k := range keys {
		if v := r[k]; truthy(v) {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		f, err := toFloat(t)
		if err != nil {
			return true
		}
		return f != 0 && !math.IsNaN(f)
	}
}

func toUnixSeconds(v any) int64 {
	if v == nil {
		return 0
	}
	f, err := toFloat(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > millisThreshold {
		f /= 1000
	}
	return int64(f)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, strconv.ErrSyntax
	}
}

func stringOr(v any, fallback string) string {
	switch t := v.(type) {
	case nil:
		return fallback
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fallback
		}
		return string(b)
	}
}
