package config

import (
	"fmt"
	"log/slog"

	"github.com/OCharnyshevich/noisefield/pkg/noise"
)

// Config holds the tile service configuration.
type Config struct {
	Port int    `yaml:"port" json:"port"`
	Seed string `yaml:"seed" json:"seed"`
	Tag  string `yaml:"tag" json:"tag"` // default channel when a request names none

	Octaves     int     `yaml:"octaves" json:"octaves"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
	Frequency   float64 `yaml:"frequency" json:"frequency"` // base frequency of the first octave

	SampleScale float64 `yaml:"sample_scale" json:"sample_scale"` // sample index → coordinate divisor
	TileSize    int     `yaml:"tile_size" json:"tile_size"`
	MaxTileSize int     `yaml:"max_tile_size" json:"max_tile_size"`
	Workers     int     `yaml:"workers" json:"workers"` // 0 = unbounded

	Hash      string `yaml:"hash" json:"hash"`           // "string" or "mix"
	Gradients string `yaml:"gradients" json:"gradients"` // "table" or "angular"
	Kernel    string `yaml:"kernel" json:"kernel"`       // "simplex", "perlin" or "opensimplex"

	DataDir    string `yaml:"data_dir" json:"data_dir"` // empty disables the on-disk tile cache
	CacheTiles int    `yaml:"cache_tiles" json:"cache_tiles"`
	LogLevel   string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:        8080,
		Seed:        "seed",
		Octaves:     4,
		Persistence: 0.6,
		Lacunarity:  2,
		Frequency:   1,
		SampleScale: 128,
		TileSize:    256,
		MaxTileSize: 1024,
		Hash:        "string",
		Gradients:   "table",
		Kernel:      "simplex",
		CacheTiles:  512,
		LogLevel:    "info",
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["port"] {
		cfg.Port = fromFile.Port
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["tag"] {
		cfg.Tag = fromFile.Tag
	}
	if !explicitFlags["octaves"] {
		cfg.Octaves = fromFile.Octaves
	}
	if !explicitFlags["persistence"] {
		cfg.Persistence = fromFile.Persistence
	}
	if !explicitFlags["lacunarity"] {
		cfg.Lacunarity = fromFile.Lacunarity
	}
	if !explicitFlags["frequency"] {
		cfg.Frequency = fromFile.Frequency
	}
	if !explicitFlags["sample-scale"] {
		cfg.SampleScale = fromFile.SampleScale
	}
	if !explicitFlags["tile-size"] {
		cfg.TileSize = fromFile.TileSize
	}
	if !explicitFlags["max-tile-size"] {
		cfg.MaxTileSize = fromFile.MaxTileSize
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["hash"] {
		cfg.Hash = fromFile.Hash
	}
	if !explicitFlags["gradients"] {
		cfg.Gradients = fromFile.Gradients
	}
	if !explicitFlags["kernel"] {
		cfg.Kernel = fromFile.Kernel
	}
	if !explicitFlags["data-dir"] {
		cfg.DataDir = fromFile.DataDir
	}
	if !explicitFlags["cache-tiles"] {
		cfg.CacheTiles = fromFile.CacheTiles
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Octaves < 1 {
		return fmt.Errorf("octaves must be at least 1, got %d", c.Octaves)
	}
	if c.SampleScale == 0 {
		return fmt.Errorf("sample_scale must be non-zero")
	}
	if c.TileSize < 1 {
		return fmt.Errorf("tile_size must be positive, got %d", c.TileSize)
	}
	if c.MaxTileSize < c.TileSize {
		return fmt.Errorf("max_tile_size %d below tile_size %d", c.MaxTileSize, c.TileSize)
	}
	if _, ok := noise.ParseLatticeHash(c.Hash); !ok {
		return fmt.Errorf("unknown hash %q", c.Hash)
	}
	if _, ok := noise.ParseGradientMode(c.Gradients); !ok {
		return fmt.Errorf("unknown gradients %q", c.Gradients)
	}
	switch c.Kernel {
	case "", "simplex", "perlin", "opensimplex":
	default:
		return fmt.Errorf("unknown kernel %q", c.Kernel)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// OctaveConfig derives the fractal parameters.
func (c *Config) OctaveConfig() noise.OctaveConfig {
	return noise.NewOctaveConfig(c.Octaves, c.Persistence, c.Lacunarity, c.Frequency)
}

// Field builds the noise field for a channel tag; an empty tag selects the
// configured default.
func (c *Config) Field(tag string) noise.Field {
	if tag == "" {
		tag = c.Tag
	}
	f := noise.NewField(c.Seed, tag)
	if h, ok := noise.ParseLatticeHash(c.Hash); ok {
		f.Hash = h
	}
	if m, ok := noise.ParseGradientMode(c.Gradients); ok {
		f.Gradients = m
	}
	return f
}

// ParseLevel maps a log level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", name)
	}
}
