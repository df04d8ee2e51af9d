package storage

import "errors"

var ErrTileNotFound = errors.New("tile not found")

// TileKey identifies a cached tile. Field is a digest of the settings that
// shape the samples, so a config change never serves stale tiles.
type TileKey struct {
	Field string
	Tag   string
	TX    int32
	TY    int32
	Size  int
}
