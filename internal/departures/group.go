package departures

import (
	"sort"
	"strings"

	"github.com/tylerverry/mvg-display/internal/config"
)

// Grouped splits a station's departures into its two directions.
type Grouped struct {
	Direction1 []Departure `json:"direction1"`
	Direction2 []Departure `json:"direction2"`
}

// Limit truncates both directions to at most n departures.
func (g Grouped) Limit(n int) Grouped {
	if n < 0 {
		n = 0
	}
	if len(g.Direction1) > n {
		g.Direction1 = g.Direction1[:n]
	}
	if len(g.Direction2) > n {
		g.Direction2 = g.Direction2[:n]
	}
	return g
}

// GroupByDirection assigns each departure to a direction. Stations with
// manual keywords are grouped by destination keyword; a departure that
// matches neither or both lists goes to direction 1. Other stations use
// the two most frequent destinations as representatives and put each
// departure with the one its destination shares a longer prefix with.
func GroupByDirection(deps []Departure, stationID string, manual map[string]config.DirectionConfig) Grouped {
	g := Grouped{Direction1: []Departure{}, Direction2: []Departure{}}
	if len(deps) == 0 {
		return g
	}

	if keywords, ok := manual[stationID]; ok {
		for _, d := range deps {
			dest := destinationOf(d)
			in1 := containsAny(dest, keywords.Direction1)
			in2 := containsAny(dest, keywords.Direction2)
			if in2 && !in1 {
				g.Direction2 = append(g.Direction2, d)
			} else {
				g.Direction1 = append(g.Direction1, d)
			}
		}
		return g
	}

	reps := topDestinations(deps)
	if len(reps) < 2 {
		g.Direction1 = append(g.Direction1, deps...)
		return g
	}

	for _, d := range deps {
		dest := destinationOf(d)
		if prefixSimilarity(dest, reps[0]) >= prefixSimilarity(dest, reps[1]) {
			g.Direction1 = append(g.Direction1, d)
		} else {
			g.Direction2 = append(g.Direction2, d)
		}
	}
	return g
}

func destinationOf(d Departure) string {
	if d.Destination == "" {
		return "Unknown"
	}
	return d.Destination
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// topDestinations lists destinations by frequency, most frequent first;
// ties keep first-appearance order.
func topDestinations(deps []Departure) []string {
	counts := make(map[string]int)
	var order []string
	for _, d := range deps {
		dest := destinationOf(d)
		if counts[dest] == 0 {
			order = append(order, dest)
		}
		counts[dest]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

// prefixSimilarity is the length of the common case-insensitive prefix
// of a and b divided by the length of the longer string.
func prefixSimilarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}

	n := 0
	for n < len(ra) && n < len(rb) && ra[n] == rb[n] {
		n++
	}
	return float64(n) / float64(longest)
}
