package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/cache"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/config"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/fetch"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/logging"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/pdf"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/pipeline"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/source"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/storage"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/summarize"
)

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = config.Path()
	} else {
		path = config.ExpandPath(path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger returns the stderr logger for cfg.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(os.Stderr, cfg.Log.Level, humanOutput)
}

// openStore returns the analysis cache for cfg.
func openStore(cfg *config.Config) *cache.Store {
	return cache.NewStore(cfg.CachePath())
}

// mustOpenIndex opens the analysis index or exits.
func mustOpenIndex(cfg *config.Config) *storage.DB {
	if err := os.MkdirAll(cfg.CachePath(), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(cfg.IndexPath())
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	return db
}

// newModel returns the generation backend selected by cfg.
func newModel(cfg *config.Config) (summarize.Model, error) {
	switch cfg.Model.Backend {
	case config.BackendOllama:
		opts := []summarize.OllamaOption{
			summarize.WithModel(cfg.Model.Name),
			summarize.WithTimeout(cfg.Model.Timeout),
		}
		if cfg.Model.BaseURL != "" {
			opts = append(opts, summarize.WithBaseURL(cfg.Model.BaseURL))
		}
		return summarize.NewOllamaModel(opts...), nil
	case config.BackendOpenAI:
		return summarize.NewOpenAIModel(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.Name, cfg.Model.Timeout), nil
	}
	return nil, fmt.Errorf("%w: unknown model backend %q", config.ErrInvalid, cfg.Model.Backend)
}

// buildPipeline wires every component from cfg. A nil index leaves new
// analyses unindexed.
func buildPipeline(cfg *config.Config, logger zerolog.Logger, index *storage.DB) (*pipeline.Pipeline, error) {
	client, err := fetch.NewClient(cfg.PDFPath(),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithProbeTimeout(cfg.Fetch.ProbeTimeout),
		fetch.WithDownloadTimeout(cfg.Fetch.DownloadTimeout),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithStructuredURL(cfg.Fetch.StructuredURL),
		fetch.WithRateLimit(cfg.Fetch.RateLimit),
		fetch.WithRetries(cfg.Fetch.MaxRetries, cfg.Fetch.RetryDelay),
		fetch.WithMaxPDFBytes(int64(cfg.Fetch.MaxPDFMB)<<20),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fetch client: %w", err)
	}

	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := summarize.NewEngine(model, cfg.SummaryOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("creating summarizer: %w", err)
	}

	deps := pipeline.Deps{
		Resolver:   source.NewResolver(cfg.Fetch.StructuredHosts...),
		Fetcher:    client,
		Extractor:  pdf.NewExtractor(pdf.WithLogger(logger)),
		Summarizer: engine,
		Cache:      openStore(cfg),
		UploadDir:  cfg.UploadPath(),
		Logger:     logger,
	}
	if index != nil {
		deps.Index = index
	}
	return pipeline.New(deps)
}

// mustBuildPipeline is buildPipeline that exits on failure. With withIndex
// the analysis index is opened and returned; the caller closes it.
func mustBuildPipeline(cfg *config.Config, withIndex bool) (*pipeline.Pipeline, *storage.DB) {
	var index *storage.DB
	if withIndex {
		index = mustOpenIndex(cfg)
	}
	p, err := buildPipeline(cfg, newLogger(cfg), index)
	if err != nil {
		if index != nil {
			index.Close()
		}
		exitWithError(exitCodeFor(err), "%v", err)
	}
	return p, index
}
