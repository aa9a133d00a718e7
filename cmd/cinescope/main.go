package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Shubham12864/cinescope/internal/adapters/driven/config/file"
	"github.com/Shubham12864/cinescope/internal/adapters/driven/storage/memory"
	"github.com/Shubham12864/cinescope/internal/adapters/driven/storage/sqlite"
	"github.com/Shubham12864/cinescope/internal/adapters/driving/cli"
	"github.com/Shubham12864/cinescope/internal/adapters/driving/httpapi"
	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
	"github.com/Shubham12864/cinescope/internal/core/services"
	"github.com/Shubham12864/cinescope/internal/imaging"
	"github.com/Shubham12864/cinescope/internal/logger"
	"github.com/Shubham12864/cinescope/internal/sources/cinemeta"
	"github.com/Shubham12864/cinescope/internal/sources/crawlix"
	"github.com/Shubham12864/cinescope/internal/sources/omdb"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("config store: %w", err)
	}
	cfg, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if key := os.Getenv("OMDB_API_KEY"); key != "" {
		cfg.Sources.OMDbAPIKey = key
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	omdbAdapter := omdb.New(cfg.Sources.OMDbAPIKey, omdb.WithTimeout(cfg.Sources.PrimaryTimeout))
	adapters := []driven.SourceAdapter{
		omdbAdapter,
		cinemeta.New(cinemeta.WithTimeout(cfg.Sources.SecondaryTimeout)),
		crawlix.New(crawlix.WithTimeout(cfg.Sources.TertiaryTimeout)),
	}

	health := services.NewHealthService(adapters, cfg.Sources.HealthInterval)
	cache := services.NewInstantCache(memory.NewRecordCache(cfg.Cache.MemoryCapacity), store.CacheStore())
	defer cache.Close()

	orchestrator := services.NewOrchestrator(adapters, health, cfg.Sources)

	// The image pipeline looks records up through the search service, which
	// itself hydrates images. Break the cycle with a late-bound closure.
	var searchService *services.SearchService
	lookup := func(ctx context.Context, id string) (*domain.CanonicalRecord, error) {
		return searchService.GetByID(ctx, id)
	}

	imageService := services.NewImageService(
		store.ImageStore(),
		memory.NewImageCache(cfg.Cache.MemoryCapacity),
		imaging.NewFetcher(),
		[]driven.ImageProvider{omdbAdapter},
		cfg.Images,
		lookup,
	)

	searchService = services.NewSearchService(cache, orchestrator, imageService, health, cfg.Cache)

	prefetch := services.NewPrefetchService(store.PatternStore(), cache, cfg.Prefetch, searchService.WarmQuery)
	searchService.SetObserver(prefetch.Observe)

	server := httpapi.NewServer(cfg.HTTP, httpapi.NewHandler(searchService, imageService, searchService))

	serve := func(ctx context.Context) error {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		health.Start(runCtx)
		defer health.Stop()

		cache.StartSweep(runCtx, cfg.Cache.SweepInterval)

		if err := prefetch.Start(runCtx); err != nil {
			return fmt.Errorf("prefetch engine: %w", err)
		}
		defer func() {
			if err := prefetch.Stop(); err != nil {
				logger.Warn("Prefetch engine stop: %v", err)
			}
		}()

		go func() {
			if err := configStore.Watch(runCtx, func(next domain.Config) {
				prefetch.UpdateConfig(next.Prefetch)
				imageService.UpdateConfig(next.Images)
			}); err != nil {
				logger.Warn("Config watch stopped: %v", err)
			}
		}()

		return server.Run(runCtx)
	}

	cli.SetServices(cli.Services{
		Search: searchService,
		Images: imageService,
		Health: searchService,
		Serve:  serve,
	})

	return cli.Execute()
}
