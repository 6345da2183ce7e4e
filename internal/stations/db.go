package stations

import (
	"encoding/json"
	"os"
	"strings"
)

const (
	// MinQueryLength is the shortest query Search accepts.
	MinQueryLength = 2
	// MaxSearchResults caps the number of stations Search returns.
	MaxSearchResults = 25
)

type StationDB struct {
	stations    map[string]Station
	allStations []Station
}

// LoadStationDB reads the JSON station list written by Convert.
func LoadStationDB(jsonPath string) (*StationDB, error) {
	f, err := os.Open(jsonPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var list []Station
	if err := json.NewDecoder(f).Decode(&list); err != nil {
		return nil, err
	}

	return NewStationDB(list), nil
}

// NewStationDB indexes list by id. The first station wins for repeated ids.
func NewStationDB(list []Station) *StationDB {
	db := &StationDB{
		stations:    make(map[string]Station, len(list)),
		allStations: make([]Station, 0, len(list)),
	}

	for _, s := range list {
		if _, dup := db.stations[s.ID]; dup {
			continue
		}
		db.stations[s.ID] = s
		db.allStations = append(db.allStations, s)
	}

	return db
}

func (db *StationDB) GetAllStations() []Station {
	return db.allStations
}

func (db *StationDB) Len() int {
	return len(db.allStations)
}

func (db *StationDB) GetStation(id string) (Station, error) {
	s, ok := db.stations[id]
	if !ok {
		return Station{}, ErrNotFound
	}
	return s, nil
}

// Search returns up to MaxSearchResults stations whose name contains
// query, ignoring case, in list order.
func (db *StationDB) Search(query string) ([]Station, error) {
	query = strings.ToLower(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}

	results := []Station{}
	for _, s := range db.allStations {
		if !strings.Contains(strings.ToLower(s.Name), query) {
			continue
		}
		results = append(results, s)
		if len(results) == MaxSearchResults {
			break
		}
	}
	return results, nil
}
