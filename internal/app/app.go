// Package app wires driven adapters and core services into the CLI.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/readwell/internal/adapters/driven/ai"
	blobfs "github.com/custodia-labs/readwell/internal/adapters/driven/blob/filesystem"
	blobmemory "github.com/custodia-labs/readwell/internal/adapters/driven/blob/memory"
	blobs3 "github.com/custodia-labs/readwell/internal/adapters/driven/blob/s3"
	cachememory "github.com/custodia-labs/readwell/internal/adapters/driven/cache/memory"
	cacheredis "github.com/custodia-labs/readwell/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/readwell/internal/adapters/driven/config/file"
	"github.com/custodia-labs/readwell/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/readwell/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/readwell/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/readwell/internal/adapters/driving/cli"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/core/services"
	"github.com/custodia-labs/readwell/internal/logger"
	"github.com/custodia-labs/readwell/internal/normalisers/ocr"
	"github.com/custodia-labs/readwell/internal/postprocessors"
	"github.com/custodia-labs/readwell/internal/postprocessors/refiner"
)

// refinerCacheEntries bounds the per-run refinement cache.
const refinerCacheEntries = 256

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("app: close: %v", err)
		}
	}
}

// Build constructs the services for one CLI invocation. The returned cleanup
// stops background jobs and closes every store it opened.
func Build(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	_ = godotenv.Load()

	var res closers
	fail := func(err error) (*cli.Services, func(), error) {
		res.close()
		return nil, nil, err
	}

	configStore, err := openConfig(opts)
	if err != nil {
		return fail(fmt.Errorf("open config: %w", err))
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fail(fmt.Errorf("load settings: %w", err))
	}
	if opts.Ephemeral {
		settings.Storage.Backend = domain.StorageMemory
		settings.Blob.Backend = domain.BlobMemory
		settings.Cache.Backend = domain.CacheMemory
	}

	docStore, err := openDocuments(ctx, settings.Storage, &res)
	if err != nil {
		return fail(fmt.Errorf("open document store: %w", err))
	}
	blobStore, err := openBlobs(ctx, settings.Blob)
	if err != nil {
		return fail(fmt.Errorf("open blob store: %w", err))
	}
	cache, err := openCache(ctx, settings.Cache, &res)
	if err != nil {
		return fail(fmt.Errorf("open cache: %w", err))
	}

	aiServices := ai.Init(ctx, settings)
	res.add(func() error { aiServices.Close(); return nil })
	for _, w := range aiServices.Warnings {
		logger.Debug("app: %s", w)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fail(fmt.Errorf("open prompts: %w", err))
	}

	pipeline, err := postprocessors.BuildPipeline(defaultRegistry(), settingsService.GetPipelineConfig())
	if err != nil {
		return fail(fmt.Errorf("build pipeline: %w", err))
	}

	proc := services.NewProcessor(
		docStore,
		blobStore,
		aiServices.OCRService,
		ocr.New(ocr.WithMinTextLength(settings.Processing.MinTextLength)),
		pipeline,
		refinerFactory(aiServices.LLMService, prompts, settings.Processing),
		ocr.DecodeDataURI,
		settings.Processing,
	)
	dispatcher := services.NewDispatcher(proc, settings.Dispatch,
		services.WithFailureRecorder(func(ctx context.Context, req domain.ProcessRequest, err error) {
			proc.RecordFailure(ctx, req.DocumentID, err)
		}))
	res.add(func() error { dispatcher.Stop(); return nil })

	explainer := services.NewExplainer(aiServices.LLMService, cache, settings.Cache.TTL)
	explainer.SetPromptStore(prompts)

	return &cli.Services{
		Ingest:    services.NewIngestService(docStore, dispatcher, settings.Upload.AllowedHosts),
		Documents: services.NewDocumentService(docStore, blobStore, dispatcher),
		Explainer: explainer,
		Settings:  settingsService,
	}, res.close, nil
}

func openConfig(opts cli.Options) (driven.ConfigStore, error) {
	if opts.Ephemeral {
		return memory.NewConfigStore(), nil
	}
	return file.NewConfigStore("")
}

func openDocuments(ctx context.Context, cfg domain.StorageSettings, res *closers) (driven.DocumentStore, error) {
	switch cfg.Backend {
	case domain.StorageMemory:
		return memory.NewDocumentStore(), nil
	case domain.StoragePostgres:
		store, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		res.add(store.Close)
		return store, nil
	case domain.StorageSQLite, "":
		path := cfg.DSN
		if path == "" {
			home, err := file.HomeDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(home, "readwell.db")
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, err
		}
		res.add(store.Close)
		return store.DocumentStore(), nil
	default:
		return nil, fmt.Errorf("%w: storage backend %s", domain.ErrUnsupportedType, cfg.Backend)
	}
}

func openBlobs(ctx context.Context, cfg domain.BlobSettings) (driven.BlobStore, error) {
	switch cfg.Backend {
	case domain.BlobMemory:
		return blobmemory.New(), nil
	case domain.BlobS3:
		return blobs3.New(ctx, cfg.S3)
	case domain.BlobFilesystem, "":
		dir := cfg.Path
		if dir == "" {
			home, err := file.HomeDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, "blobs")
		}
		return blobfs.New(dir)
	default:
		return nil, fmt.Errorf("%w: blob backend %s", domain.ErrUnsupportedType, cfg.Backend)
	}
}

func openCache(ctx context.Context, cfg domain.CacheSettings, res *closers) (driven.Cache, error) {
	switch cfg.Backend {
	case domain.CacheRedis:
		cache, err := cacheredis.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		res.add(cache.Close)
		return cache, nil
	case domain.CacheMemory, "":
		return cachememory.New(cfg.MaxEntries), nil
	default:
		return nil, fmt.Errorf("%w: cache backend %s", domain.ErrUnsupportedType, cfg.Backend)
	}
}

func defaultRegistry() *postprocessors.Registry {
	r := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(r)
	return r
}

// refinerFactory returns nil without an LLM so runs fail before any OCR call.
func refinerFactory(llm driven.LLMService, prompts driven.PromptStore, cfg domain.ProcessingSettings) driven.RefinerFactory {
	if llm == nil {
		return nil
	}
	return func() driven.Refiner {
		return refiner.New(llm,
			refiner.WithMaxAttempts(cfg.MaxAttempts),
			refiner.WithBackoff(cfg.RetryBackoff),
			refiner.WithTemperature(cfg.Temperature),
			refiner.WithMaxTokens(cfg.MaxTokens),
			refiner.WithPromptStore(prompts),
			refiner.WithCache(cachememory.New(refinerCacheEntries)),
		)
	}
}
