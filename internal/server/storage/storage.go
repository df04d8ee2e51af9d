package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/OCharnyshevich/noisefield/internal/server/config"
	wire "github.com/OCharnyshevich/noisefield/internal/server/net"
)

// Storage handles file-based persistence for the service config, exported
// tile frames and the tile cache database.
type Storage struct {
	dir string
	log *slog.Logger
}

// New creates a new Storage rooted at dir, creating subdirectories as needed.
func New(dir string, log *slog.Logger) (*Storage, error) {
	dirs := []string{
		dir,
		filepath.Join(dir, "exports"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return &Storage{dir: dir, log: log}, nil
}

// Dir returns the storage root.
func (s *Storage) Dir() string {
	return s.dir
}

// LoadConfig reads config.json into cfg. If the file does not exist, cfg is unchanged.
func (s *Storage) LoadConfig(cfg *config.Config) error {
	path := filepath.Join(s.dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	s.log.Info("loaded config from file", "path", path)
	return nil
}

// SaveConfig writes cfg to config.json atomically, recording the parameters
// the cached tiles were generated with.
func (s *Storage) SaveConfig(cfg *config.Config) error {
	path := filepath.Join(s.dir, "config.json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}

// OpenTileCache opens (creating if needed) tiles.db under the storage root.
func (s *Storage) OpenTileCache() (*TileCache, error) {
	return OpenTileCache(filepath.Join(s.dir, "tiles.db"), s.log)
}

// ExportTile writes t as a standalone frame file under exports/.
func (s *Storage) ExportTile(name string, t *wire.Tile) (string, error) {
	path := filepath.Join(s.dir, "exports", name)
	if err := WriteTileFile(path, t); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTileFile encodes t and writes it to path atomically.
func WriteTileFile(path string, t *wire.Tile) error {
	frame, err := wire.EncodeTile(t)
	if err != nil {
		return fmt.Errorf("encode tile: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return atomicWrite(path, frame)
}

// ReadTileFile reads a frame file written by WriteTileFile.
func ReadTileFile(path string) (*wire.Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tile file: %w", err)
	}
	t, err := wire.DecodeTile(data)
	if err != nil {
		return nil, fmt.Errorf("decode tile file %s: %w", path, err)
	}
	return t, nil
}

// atomicWrite writes data using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
