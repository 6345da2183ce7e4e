package stations

// Station is one entry of the station list: a display name and the
// provider's global station id (for example "de:09162:6").
type Station struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Result is the outcome of normalizing a station list.
type Result struct {
	Stations []Station // deduplicated, in first-seen order
	Total    int       // matching data lines, duplicates included
}

// Unique is the number of stations left after deduplication.
func (r Result) Unique() int {
	return len(r.Stations)
}
