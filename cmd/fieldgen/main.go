// Command fieldgen samples a noise field offline and writes it as a tile
// frame, optionally with a raw grayscale plane.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/OCharnyshevich/noisefield/internal/server/config"
	wire "github.com/OCharnyshevich/noisefield/internal/server/net"
	"github.com/OCharnyshevich/noisefield/internal/server/storage"
	"github.com/OCharnyshevich/noisefield/pkg/field"
)

func main() {
	cfg := config.DefaultConfig()

	width := flag.Int("width", 1024, "grid width in samples")
	height := flag.Int("height", 1024, "grid height in samples")
	originX := flag.Int("x", 0, "sample index of the left column")
	originY := flag.Int("y", 0, "sample index of the top row")
	out := flag.String("o", "field.nft", "output tile frame path")
	dataDir := flag.String("data-dir", "", "write the frame under <data-dir>/exports instead of -o's directory")
	gray := flag.String("gray", "", "optional raw 8-bit grayscale output path")
	flag.StringVar(&cfg.Seed, "seed", cfg.Seed, "field seed")
	flag.StringVar(&cfg.Tag, "tag", cfg.Tag, "channel tag")
	flag.IntVar(&cfg.Octaves, "octaves", cfg.Octaves, "number of octaves")
	flag.Float64Var(&cfg.Persistence, "persistence", cfg.Persistence, "amplitude multiplier per octave")
	flag.Float64Var(&cfg.Lacunarity, "lacunarity", cfg.Lacunarity, "frequency multiplier per octave")
	flag.Float64Var(&cfg.Frequency, "frequency", cfg.Frequency, "base frequency of the first octave")
	flag.Float64Var(&cfg.SampleScale, "sample-scale", cfg.SampleScale, "sample indices per field unit")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "sampling goroutines (0 = one per row)")
	flag.StringVar(&cfg.Hash, "hash", cfg.Hash, "lattice hash: string or mix")
	flag.StringVar(&cfg.Gradients, "gradients", cfg.Gradients, "gradient set: table or angular")
	flag.StringVar(&cfg.Kernel, "kernel", cfg.Kernel, "noise kernel: simplex, perlin or opensimplex")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid flags", "error", err)
		os.Exit(1)
	}
	if *width*(*height) > wire.MaxTileSamples {
		log.Error("grid too large", "width", *width, "height", *height, "limit", wire.MaxTileSamples)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, err := field.NewSource(cfg.Kernel, cfg.Field(cfg.Tag), cfg.OctaveConfig())
	if err != nil {
		log.Error("build source", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	region := field.Region{X: *originX, Y: *originY, Width: *width, Height: *height, Scale: cfg.SampleScale}
	g, err := field.Sample(ctx, src, region, cfg.Workers)
	if err != nil {
		log.Error("sample field", "error", err)
		os.Exit(1)
	}
	log.Info("sampled field",
		"width", *width,
		"height", *height,
		"kernel", cfg.Kernel,
		"octaves", cfg.Octaves,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	tile := &wire.Tile{Tag: cfg.Tag, Grid: g}
	path, err := writeTile(*dataDir, *out, tile, log)
	if err != nil {
		log.Error("write tile", "path", *out, "error", err)
		os.Exit(1)
	}
	logSize(log, "wrote tile", path)

	if *gray != "" {
		if err := os.WriteFile(*gray, g.GrayPlane(), 0o644); err != nil {
			log.Error("write grayscale", "path", *gray, "error", err)
			os.Exit(1)
		}
		logSize(log, "wrote grayscale", *gray)
	}
}

// writeTile writes t to out, or to the exports directory of dataDir under
// out's base name when dataDir is set. It returns the written path.
func writeTile(dataDir, out string, t *wire.Tile, log *slog.Logger) (string, error) {
	if dataDir == "" {
		return out, storage.WriteTileFile(out, t)
	}
	store, err := storage.New(dataDir, log)
	if err != nil {
		return "", err
	}
	log.Debug("exporting tile", "dataDir", store.Dir())
	return store.ExportTile(filepath.Base(out), t)
}

func logSize(log *slog.Logger, msg, path string) {
	info, err := os.Stat(path)
	if err != nil {
		log.Info(msg, "path", path)
		return
	}
	log.Info(msg, "path", path, "size", humanize.Bytes(uint64(info.Size())))
}
