package world

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/OCharnyshevich/noisefield/internal/server/config"
	wire "github.com/OCharnyshevich/noisefield/internal/server/net"
	"github.com/OCharnyshevich/noisefield/internal/server/storage"
	"github.com/OCharnyshevich/noisefield/pkg/field"
)

// TilePos identifies a tile of a channel.
type TilePos struct {
	Tag    string
	TX, TY int32
	Size   int
}

// World serves field tiles, keeping recently used ones in memory and, when a
// TileCache is configured, on disk.
type World struct {
	cfg   *config.Config
	log   *slog.Logger
	cache *storage.TileCache // nil disables the on-disk cache

	mu          sync.RWMutex
	tiles       map[TilePos]*wire.Tile
	order       []TilePos // insertion order for eviction
	sources     map[string]field.Source
	sourceOrder []string
}

// maxSources bounds the per-channel sources kept between requests.
const maxSources = 64

// NewWorld creates a World for cfg. cache may be nil.
func NewWorld(cfg *config.Config, cache *storage.TileCache, log *slog.Logger) (*World, error) {
	w := &World{
		cfg:     cfg,
		log:     log,
		cache:   cache,
		tiles:   make(map[TilePos]*wire.Tile),
		sources: make(map[string]field.Source),
	}
	// Fail fast on a kernel that cannot be built.
	if _, err := w.source(cfg.Tag); err != nil {
		return nil, err
	}
	return w, nil
}

// tagOrDefault resolves the channel a request samples.
func (w *World) tagOrDefault(tag string) string {
	if tag == "" {
		return w.cfg.Tag
	}
	return tag
}

// source returns the Source for a channel, building it on first use.
func (w *World) source(tag string) (field.Source, error) {
	tag = w.tagOrDefault(tag)

	w.mu.RLock()
	src, ok := w.sources[tag]
	w.mu.RUnlock()
	if ok {
		return src, nil
	}

	src, err := field.NewSource(w.cfg.Kernel, w.cfg.Field(tag), w.cfg.OctaveConfig())
	if err != nil {
		return nil, fmt.Errorf("build %s source: %w", w.cfg.Kernel, err)
	}

	w.mu.Lock()
	if existing, ok := w.sources[tag]; ok {
		src = existing
	} else {
		for len(w.sourceOrder) >= maxSources {
			delete(w.sources, w.sourceOrder[0])
			w.sourceOrder = w.sourceOrder[1:]
		}
		w.sources[tag] = src
		w.sourceOrder = append(w.sourceOrder, tag)
	}
	w.mu.Unlock()
	return src, nil
}

// Sample returns the field value at (x, y) for a channel.
func (w *World) Sample(x, y float64, tag string) (float64, error) {
	src, err := w.source(tag)
	if err != nil {
		return 0, err
	}
	return src.Sample(x, y), nil
}

// GetOrGenerateTile returns the tile at (tx, ty), generating and caching it
// if needed. size <= 0 selects the configured tile size.
func (w *World) GetOrGenerateTile(ctx context.Context, tx, ty int32, tag string, size int) (*wire.Tile, error) {
	if size <= 0 {
		size = w.cfg.TileSize
	}
	if size > w.cfg.MaxTileSize {
		return nil, fmt.Errorf("tile size %d exceeds limit %d", size, w.cfg.MaxTileSize)
	}
	pos := TilePos{Tag: w.tagOrDefault(tag), TX: tx, TY: ty, Size: size}

	w.mu.RLock()
	if t, ok := w.tiles[pos]; ok {
		w.mu.RUnlock()
		return t, nil
	}
	w.mu.RUnlock()

	key := storage.TileKey{Field: w.FieldKey(), Tag: pos.Tag, TX: tx, TY: ty, Size: size}
	t, err := w.loadCached(ctx, key)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t, err = w.generate(ctx, pos)
		if err != nil {
			return nil, err
		}
		if w.cache != nil {
			if err := w.cache.Put(ctx, key, t); err != nil {
				w.log.Warn("cache tile", "tx", tx, "ty", ty, "error", err)
			}
		}
	}

	w.mu.Lock()
	// Double-check after acquiring write lock.
	if existing, ok := w.tiles[pos]; ok {
		w.mu.Unlock()
		return existing, nil
	}
	w.insertLocked(pos, t)
	w.mu.Unlock()
	return t, nil
}

func (w *World) loadCached(ctx context.Context, key storage.TileKey) (*wire.Tile, error) {
	if w.cache == nil {
		return nil, nil
	}
	t, err := w.cache.Get(ctx, key)
	if errors.Is(err, storage.ErrTileNotFound) {
		return nil, nil
	}
	if err != nil {
		// A broken cache entry is regenerated rather than failing the request.
		w.log.Warn("read cached tile", "tx", key.TX, "ty", key.TY, "error", err)
		return nil, nil
	}
	return t, nil
}

func (w *World) generate(ctx context.Context, pos TilePos) (*wire.Tile, error) {
	src, err := w.source(pos.Tag)
	if err != nil {
		return nil, err
	}
	region := field.Region{
		X:      int(pos.TX) * pos.Size,
		Y:      int(pos.TY) * pos.Size,
		Width:  pos.Size,
		Height: pos.Size,
		Scale:  w.cfg.SampleScale,
	}
	g, err := field.Sample(ctx, src, region, w.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("sample tile (%d, %d): %w", pos.TX, pos.TY, err)
	}
	// Narrow to the wire precision so memory, disk and network agree.
	for i, v := range g.Samples {
		g.Samples[i] = float64(float32(v))
	}
	w.log.Debug("generated tile", "tx", pos.TX, "ty", pos.TY, "tag", pos.Tag, "size", pos.Size)
	return &wire.Tile{TX: pos.TX, TY: pos.TY, Tag: pos.Tag, Grid: g}, nil
}

func (w *World) insertLocked(pos TilePos, t *wire.Tile) {
	limit := w.cfg.CacheTiles
	if limit <= 0 {
		return
	}
	for len(w.order) >= limit {
		delete(w.tiles, w.order[0])
		w.order = w.order[1:]
	}
	w.tiles[pos] = t
	w.order = append(w.order, pos)
}

// Purge drops cached tiles generated with other settings.
func (w *World) Purge(ctx context.Context) (int64, error) {
	if w.cache == nil {
		return 0, nil
	}
	return w.cache.Purge(ctx, w.FieldKey())
}

// Len returns the number of tiles held in memory.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.tiles)
}

// FieldKey digests every setting other than the channel tag that shapes
// the samples.
func (w *World) FieldKey() string {
	c := w.cfg
	parts := []string{
		c.Seed,
		c.Hash,
		c.Gradients,
		c.Kernel,
		strconv.Itoa(c.Octaves),
		strconv.FormatFloat(c.Persistence, 'g', -1, 64),
		strconv.FormatFloat(c.Lacunarity, 'g', -1, 64),
		strconv.FormatFloat(c.Frequency, 'g', -1, 64),
		strconv.FormatFloat(c.SampleScale, 'g', -1, 64),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:16])
}
