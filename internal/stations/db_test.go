package stations

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStationDB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"name": "Marienplatz", "id": "de:09162:2"},
  {"name": "Odeonsplatz", "id": "de:09162:3"}
]`), 0o644))

	db, err := LoadStationDB(path)
	require.NoError(t, err)
	assert.Equal(t, 2, db.Len())

	s, err := db.GetStation("de:09162:3")
	require.NoError(t, err)
	assert.Equal(t, "Odeonsplatz", s.Name)

	_, err = db.GetStation("de:09162:999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadStationDB_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadStationDB(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadStationDB(bad)
	assert.Error(t, err)
}

func TestStationDB_ReadsConvertOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, sampleDump)
	output := filepath.Join(dir, "stations.json")

	res, err := Convert(input, output)
	require.NoError(t, err)

	db, err := LoadStationDB(output)
	require.NoError(t, err)
	assert.Equal(t, res.Stations, db.GetAllStations())
}

func TestStationDB_Search(t *testing.T) {
	db := NewStationDB([]Station{
		{Name: "Hauptbahnhof", ID: "1"},
		{Name: "Marienplatz", ID: "2"},
		{Name: "Karlsplatz (Stachus)", ID: "3"},
		{Name: "Hauptbahnhof Nord", ID: "1"},
	})

	tests := []struct {
		name    string
		query   string
		wantIDs []string
		wantErr error
	}{
		{name: "case insensitive", query: "PLATZ", wantIDs: []string{"2", "3"}},
		{name: "substring", query: "bahn", wantIDs: []string{"1"}},
		{name: "no match", query: "xyz", wantIDs: []string{}},
		{name: "too short", query: "h", wantErr: ErrQueryTooShort},
		{name: "empty", query: "", wantErr: ErrQueryTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Search(tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := []string{}
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStationDB_SearchLimit(t *testing.T) {
	list := make([]Station, 0, 40)
	for i := 0; i < 40; i++ {
		list = append(list, Station{Name: fmt.Sprintf("Bus Stop %d", i), ID: fmt.Sprint(i)})
	}
	db := NewStationDB(list)

	got, err := db.Search("stop")
	require.NoError(t, err)
	require.Len(t, got, MaxSearchResults)
	assert.Equal(t, "0", got[0].ID)
	assert.Equal(t, "24", got[MaxSearchResults-1].ID)
}
