package stations

import (
	"strings"
)

const (
	namePrefix  = "Name: "
	idSeparator = ", ID: "
)

// bannerPrefixes mark the summary lines the station dump starts with.
var bannerPrefixes = []string{
	"Total stations",
	"Available stations",
}

// ParseLine extracts a station from a single line of the text dump.
// Lines look like "Name: Marienplatz, ID: de:09162:2". When the separator
// appears more than once the last one splits name and id. Blank lines,
// banner lines and anything else that does not match return false.
func ParseLine(line string) (Station, bool) {
	line = strings.TrimSpace(line)
	if line == "" || isBanner(line) {
		return Station{}, false
	}

	rest, ok := strings.CutPrefix(line, namePrefix)
	if !ok {
		return Station{}, false
	}

	i := strings.LastIndex(rest, idSeparator)
	if i < 0 {
		return Station{}, false
	}

	return Station{
		Name: strings.TrimSpace(rest[:i]),
		ID:   strings.TrimSpace(rest[i+len(idSeparator):]),
	}, true
}

func isBanner(line string) bool {
	for _, p := range bannerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize parses every line of text and drops stations whose id was
// already seen. The first occurrence of an id wins, even when a later
// line carries a different name.
func Normalize(text string) Result {
	res := Result{Stations: []Station{}}
	seen := make(map[string]bool)

	for _, line := range strings.Split(newlines.Replace(text), "\n") {
		s, ok := ParseLine(line)
		if !ok {
			continue
		}
		res.Total++

		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		res.Stations = append(res.Stations, s)
	}

	return res
}
