package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/antigravity-dev/corpusgen/internal/config"
	"github.com/antigravity-dev/corpusgen/internal/coordstate"
	"github.com/antigravity-dev/corpusgen/internal/httpapi"
	"github.com/antigravity-dev/corpusgen/internal/lock"
	"github.com/antigravity-dev/corpusgen/internal/nameprovider"
	"github.com/antigravity-dev/corpusgen/internal/scheduler"
	"github.com/antigravity-dev/corpusgen/internal/schema"
	"github.com/antigravity-dev/corpusgen/internal/store"
	"github.com/antigravity-dev/corpusgen/internal/targetgen"
	"github.com/antigravity-dev/corpusgen/internal/toon"
	"github.com/antigravity-dev/corpusgen/internal/validator"
)

func configureLogger(dev bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if dev {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func main() {
	configPath := flag.String("config", "coordinator.json", "path to config file")
	dev := flag.Bool("dev", false, "use text log format (default is JSON)")
	flag.Parse()

	logger := configureLogger(*dev)
	slog.SetDefault(logger)
	logger.Info("corpusgen coordinator starting", "config", *configPath)

	cfgManager, err := config.LoadManager(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		logger.Error("failed to create state directory", "path", cfg.StateDir, "error", err)
		os.Exit(1)
	}

	stateLock, err := lock.Acquire(cfg.StateDir)
	if err != nil {
		logger.Error("failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer stateLock.Release()

	idx, err := schema.Load(cfg.MasterSchema)
	if err != nil {
		logger.Error("failed to load master schema", "path", cfg.MasterSchema, "error", err)
		os.Exit(1)
	}

	catalog := cfg.EffectiveAxisCatalog()
	st, err := store.Open(cfg.StateDir, catalog, cfg.Generation.GenerationTarget, logger.With("component", "store"))
	if err != nil {
		logger.Error("failed to open store", "dir", cfg.StateDir, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var seedCount int
	if cfg.SeedCorpus != "" {
		n, err := st.LoadSeedCorpus(cfg.SeedCorpus)
		if err != nil {
			logger.Error("failed to load seed corpus", "path", cfg.SeedCorpus, "error", err)
			os.Exit(1)
		}
		seedCount = n
		logger.Info("seed corpus loaded", "path", cfg.SeedCorpus, "rows", n)
	}

	// Resolve the generation target now that the seed corpus size is
	// known: an explicit generation_target in the config file wins,
	// otherwise it is target_total minus the seed count.
	cfg.Generation.GenerationTarget = cfg.ResolveGenerationTarget(seedCount)
	cfgManager.Set(cfg)
	if err := st.SetGenerationTarget(cfg.Generation.GenerationTarget); err != nil {
		logger.Error("failed to persist resolved generation target", "error", err)
		os.Exit(1)
	}

	codec := toon.New(cfg.Codec.Binary, cfg.Codec.Timeout.Duration)
	names := nameprovider.NewChainProvider()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := targetgen.New(idx, codec, names, rng, cfg.Generation.MaxAttempts)
	sched := scheduler.New(catalog, st.Counters(), cfg.Generation.FIFOSize, rng)
	similarity := validator.NewSimilarityWindow(cfg.Similarity.WindowSize, cfg.Similarity.Threshold)

	coord := coordstate.New(cfgManager, sched, generator, st, similarity, logger.With("component", "coordstate"))

	var cfgMu sync.Mutex
	applyReload := func() error {
		cfgMu.Lock()
		defer cfgMu.Unlock()

		// The manager rejects restart-only changes (state_dir, bind) and
		// keeps the old config live when it does.
		if err := cfgManager.Reload(*configPath); err != nil {
			return err
		}
		updated := cfgManager.Get()
		updated.Generation.GenerationTarget = updated.ResolveGenerationTarget(seedCount)
		cfgManager.Set(updated)
		cfg = updated
		return st.SetGenerationTarget(cfg.Generation.GenerationTarget)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bind := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	apiSrv := httpapi.New(bind, coord, logger.With("component", "httpapi"))
	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- apiSrv.Start(ctx)
	}()

	logger.Info("coordinator running", "bind", bind, "generation_target", cfg.Generation.GenerationTarget)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case err := <-srvErrCh:
			// A bind failure (or any other listener error) is fatal.
			if err != nil {
				logger.Error("http api server error", "bind", bind, "error", err)
				os.Exit(1)
			}
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				if err := applyReload(); err != nil {
					logger.Error("config reload failed", "error", err)
					continue
				}
				logger.Info("config reloaded")
			default:
				shutdownStart := time.Now()
				logger.Info("received signal, shutting down", "signal", sig)
				cancel()
				if err := <-srvErrCh; err != nil {
					logger.Error("http api server error during shutdown", "error", err)
				}
				logger.Info("coordinator stopped", "shutdown_duration", time.Since(shutdownStart).String())
				return
			}
		}
	}
}
