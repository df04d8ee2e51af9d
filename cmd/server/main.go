package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/noisefield/internal/server"
	"github.com/OCharnyshevich/noisefield/internal/server/config"
	"github.com/OCharnyshevich/noisefield/internal/server/storage"
	"github.com/OCharnyshevich/noisefield/internal/server/world"
)

func main() {
	cfg := config.DefaultConfig()

	configSrc := flag.String("config", "", "config file path or go-getter URL")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	flag.StringVar(&cfg.Seed, "seed", cfg.Seed, "field seed")
	flag.StringVar(&cfg.Tag, "tag", cfg.Tag, "default channel tag")
	flag.IntVar(&cfg.Octaves, "octaves", cfg.Octaves, "number of octaves")
	flag.Float64Var(&cfg.Persistence, "persistence", cfg.Persistence, "amplitude multiplier per octave")
	flag.Float64Var(&cfg.Lacunarity, "lacunarity", cfg.Lacunarity, "frequency multiplier per octave")
	flag.Float64Var(&cfg.Frequency, "frequency", cfg.Frequency, "base frequency of the first octave")
	flag.Float64Var(&cfg.SampleScale, "sample-scale", cfg.SampleScale, "sample indices per field unit")
	flag.IntVar(&cfg.TileSize, "tile-size", cfg.TileSize, "default tile edge in samples")
	flag.IntVar(&cfg.MaxTileSize, "max-tile-size", cfg.MaxTileSize, "largest tile a client may request")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "goroutines per tile (0 = one per row)")
	flag.StringVar(&cfg.Hash, "hash", cfg.Hash, "lattice hash: string or mix")
	flag.StringVar(&cfg.Gradients, "gradients", cfg.Gradients, "gradient set: table or angular")
	flag.StringVar(&cfg.Kernel, "kernel", cfg.Kernel, "noise kernel: simplex, perlin or opensimplex")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the tile cache (empty disables it)")
	flag.IntVar(&cfg.CacheTiles, "cache-tiles", cfg.CacheTiles, "tiles kept in memory")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *configSrc != "" {
		fetchDir, err := os.MkdirTemp("", "noisefield-config-")
		if err != nil {
			log.Error("create fetch directory", "error", err)
			os.Exit(1)
		}
		defer os.RemoveAll(fetchDir)

		path, err := config.Resolve(ctx, *configSrc, fetchDir)
		if err != nil {
			log.Error("resolve config", "src", *configSrc, "error", err)
			os.Exit(1)
		}
		fromFile, err := config.Load(path)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		config.Merge(cfg, fromFile, explicit)
	}

	var store *storage.Storage
	if cfg.DataDir != "" {
		var err error
		store, err = storage.New(cfg.DataDir, log)
		if err != nil {
			log.Error("open data dir", "error", err)
			os.Exit(1)
		}
		// Without an explicit config file, resume with the settings of the last run.
		if *configSrc == "" {
			saved := config.DefaultConfig()
			if err := store.LoadConfig(saved); err != nil {
				log.Error("load saved config", "error", err)
				os.Exit(1)
			}
			saved.DataDir = cfg.DataDir
			config.Merge(cfg, saved, explicit)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	var cache *storage.TileCache
	if store != nil {
		if err := store.SaveConfig(cfg); err != nil {
			log.Error("save config", "error", err)
			os.Exit(1)
		}
		var err error
		cache, err = store.OpenTileCache()
		if err != nil {
			log.Error("open tile cache", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	w, err := world.NewWorld(cfg, cache, log)
	if err != nil {
		log.Error("create world", "error", err)
		os.Exit(1)
	}
	if removed, err := w.Purge(ctx); err != nil {
		log.Warn("purge tile cache", "error", err)
	} else if removed > 0 {
		log.Info("purged stale tiles", "count", removed)
	}

	srv := server.New(cfg, log, w)
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
