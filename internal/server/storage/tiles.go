package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	wire "github.com/OCharnyshevich/noisefield/internal/server/net"
)

// TileCache persists encoded tile frames in SQLite.
type TileCache struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenTileCache opens the cache database at path.
func OpenTileCache(path string, log *slog.Logger) (*TileCache, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open tile cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init tile cache: %w", err)
	}
	return &TileCache{db: db, log: log}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS tiles (
			field TEXT NOT NULL,
			tag TEXT NOT NULL,
			tx INTEGER NOT NULL,
			ty INTEGER NOT NULL,
			size INTEGER NOT NULL,
			frame BLOB NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (field, tag, tx, ty, size)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the cached tile for key or ErrTileNotFound.
func (c *TileCache) Get(ctx context.Context, key TileKey) (*wire.Tile, error) {
	var frame []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT frame FROM tiles WHERE field = ? AND tag = ? AND tx = ? AND ty = ? AND size = ?`,
		key.Field, key.Tag, key.TX, key.TY, key.Size,
	).Scan(&frame)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query tile: %w", err)
	}

	t, err := wire.DecodeTile(frame)
	if err != nil {
		return nil, fmt.Errorf("decode cached tile: %w", err)
	}
	return t, nil
}

// Put stores t under key, replacing any previous entry.
func (c *TileCache) Put(ctx context.Context, key TileKey, t *wire.Tile) error {
	frame, err := wire.EncodeTile(t)
	if err != nil {
		return fmt.Errorf("encode tile: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles (field, tag, tx, ty, size, frame, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.Field, key.Tag, key.TX, key.TY, key.Size, frame, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store tile: %w", err)
	}
	c.log.Debug("cached tile", "tx", key.TX, "ty", key.TY, "size", key.Size, "bytes", humanize.Bytes(uint64(len(frame))))
	return nil
}

// Count returns the number of cached tiles.
func (c *TileCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tiles: %w", err)
	}
	return n, nil
}

// Purge drops every tile not generated with the settings digest field and returns how many were removed.
func (c *TileCache) Purge(ctx context.Context, field string) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM tiles WHERE field <> ?`, field)
	if err != nil {
		return 0, fmt.Errorf("purge tiles: %w", err)
	}
	return res.RowsAffected()
}

func (c *TileCache) Close() error {
	return c.db.Close()
}
