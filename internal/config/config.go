package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SourceMVG    = "mvg"
	SourceGTFSRT = "gtfsrt"
)

type Config struct {
	Server     ServerConfig               `yaml:"server"`
	Stations   StationsConfig             `yaml:"stations"`
	Departures DeparturesConfig           `yaml:"departures"`
	Polling    PollingConfig              `yaml:"polling"`
	Directions map[string]DirectionConfig `yaml:"directions"`
}

type ServerConfig struct {
	Port      int    `yaml:"port" validate:"gt=0,lte=65535"`
	StaticDir string `yaml:"static_dir"`
}

type StationsConfig struct {
	Input  string `yaml:"input" validate:"required"`
	Output string `yaml:"output" validate:"required"`
}

type DeparturesConfig struct {
	Source     string        `yaml:"source" validate:"oneof=mvg gtfsrt"`
	BaseURL    string        `yaml:"base_url" validate:"omitempty,url"`
	GTFSRTURL  string        `yaml:"gtfsrt_url" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	CacheTTL   time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0"`
	DebugLog   string        `yaml:"debug_log"`
}

type PollingConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
}

// DirectionConfig lists destination keywords that put a departure into
// the first or second direction of a station.
type DirectionConfig struct {
	Direction1 []string `yaml:"direction1"`
	Direction2 []string `yaml:"direction2"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      3000,
			StaticDir: "public",
		},
		Stations: StationsConfig{
			Input:  "data/stations.txt",
			Output: "data/stations.json",
		},
		Departures: DeparturesConfig{
			Source:     SourceMVG,
			BaseURL:    "https://www.mvg.de/api/bgw-pt/v3",
			Timeout:    10 * time.Second,
			CacheTTL:   60 * time.Second,
			MaxRetries: 3,
			DebugLog:   "data/mvg_debug.log",
		},
		Polling: PollingConfig{
			Interval: 30 * time.Second,
		},
		Directions: map[string]DirectionConfig{
			"de:09162:632": {
				Direction1: []string{"Laimer Platz", "Emdenstraße", "Neuperlach Süd", "Grünwald", "Berg am Laim", "Effnerplatz"},
				Direction2: []string{"Willibaldplatz", "Westendstraße", "Westfriedhof"},
			},
		},
	}
}

// Load reads the YAML file at path on top of the defaults, applies
// environment overrides (a .env file is picked up when present) and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read is Load without validation, for callers that only use one section
// and validate it themselves.
func Read(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decodeFile decodes path on top of cfg. A directions section in the file
// replaces the built-in one instead of merging with it.
func decodeFile(path string, cfg *Config) error {
	defaults := cfg.Directions
	cfg.Directions = nil
	defer func() {
		if cfg.Directions == nil {
			cfg.Directions = defaults
		}
	}()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := getEnv("STATIONS_INPUT"); v != "" {
		c.Stations.Input = v
	}
	if v := getEnv("STATIONS_OUTPUT"); v != "" {
		c.Stations.Output = v
	}
	if v := getEnv("DEPARTURE_SOURCE"); v != "" {
		c.Departures.Source = strings.ToLower(v)
	}
	if v := getEnv("MVG_BASE_URL"); v != "" {
		c.Departures.BaseURL = v
	}
	if v := getEnv("GTFSRT_URL"); v != "" {
		c.Departures.GTFSRTURL = v
	}
	if v := getEnv("DEBUG_LOG"); v != "" {
		c.Departures.DebugLog = v
	}
	return nil
}

// Validate checks only the stations section.
func (s StationsConfig) Validate() error {
	return validator.New().Struct(s)
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	switch c.Departures.Source {
	case SourceMVG:
		if c.Departures.BaseURL == "" {
			return errors.New("departures.base_url is required for the mvg source")
		}
	case SourceGTFSRT:
		if c.Departures.GTFSRTURL == "" {
			return errors.New("departures.gtfsrt_url is required for the gtfsrt source")
		}
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
