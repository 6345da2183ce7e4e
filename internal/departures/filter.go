package departures

import (
	"strings"
)

// AllModes disables mode filtering.
const AllModes = "all"

// modeProducts maps a mode name accepted in the modes query parameter to
// the product names providers use for it.
var modeProducts = map[string][]string{
	"tram":  {"tram"},
	"bus":   {"bus", "regional_bus"},
	"ubahn": {"u-bahn", "ubahn"},
	"sbahn": {"s-bahn", "sbahn"},
}

// FilterByModes keeps the departures whose type belongs to one of the
// comma separated modes (tram, bus, ubahn, sbahn). "all" or an empty
// string keeps everything.
func FilterByModes(deps []Departure, modes string) []Departure {
	modes = strings.ToLower(strings.TrimSpace(modes))
	if modes == "" || modes == AllModes {
		return deps
	}

	allowed := make(map[string]bool)
	for _, m := range strings.Split(modes, ",") {
		for _, p := range modeProducts[strings.TrimSpace(m)] {
			allowed[p] = true
		}
	}

	out := []Departure{}
	for _, d := range deps {
		if allowed[strings.ToLower(d.Type)] {
			out = append(out, d)
		}
	}
	return out
}
