// Package app builds the planner components from configuration. Both the
// daemon and the CLI use it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/extract"
	"github.com/joseph-ayodele/venue-planner/internal/llm"
	"github.com/joseph-ayodele/venue-planner/internal/llm/anthropic"
	"github.com/joseph-ayodele/venue-planner/internal/llm/gemini"
	"github.com/joseph-ayodele/venue-planner/internal/llm/openai"
	"github.com/joseph-ayodele/venue-planner/internal/ocr"
	"github.com/joseph-ayodele/venue-planner/internal/persist"
	"github.com/joseph-ayodele/venue-planner/internal/remote/s3"
	"github.com/joseph-ayodele/venue-planner/internal/repository"
	"github.com/joseph-ayodele/venue-planner/internal/syncer"
)

// Cleanup releases whatever an Open* call acquired.
type Cleanup func()

func noop() {}

// OpenLocal opens the SQLite snapshot store.
func OpenLocal(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*persist.Local, Cleanup, error) {
	drv, err := repository.OpenSQLite(cfg.Local.SQLitePath, logger)
	if err != nil {
		return nil, noop, err
	}
	repo, err := repository.NewSnapshotRepository(ctx, drv, logger)
	if err != nil {
		repository.Close(drv, nil, logger)
		return nil, noop, err
	}
	return persist.NewLocal(repo, logger), func() { repository.Close(drv, nil, logger) }, nil
}

// Pinger is a remote that can check its own reachability.
type Pinger interface {
	syncer.Remote
	Ping(ctx context.Context) error
}

// OpenRemote connects the configured sync backend. It returns a nil remote
// when sync is disabled.
func OpenRemote(ctx context.Context, cfg *common.Config, logger *slog.Logger) (Pinger, Cleanup, error) {
	if err := cfg.ValidateSync(); err != nil {
		return nil, noop, err
	}
	switch cfg.Sync.Backend {
	case "postgres":
		drv, pool, err := repository.OpenPostgres(ctx, repository.PostgresConfig{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() { repository.Close(drv, pool, logger) }
		docs := repository.NewDocumentRepository(drv, cfg.Sync.DocumentID, logger)
		if err := docs.Migrate(ctx); err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("migrate remote documents: %w", err)
		}
		return docs, cleanup, nil
	case "s3":
		store, err := s3.New(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			DocumentID:      cfg.Sync.DocumentID,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
	return nil, noop, nil
}

// NewGenerator builds the model client for cfg.LLM.Provider.
func NewGenerator(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}, logger)
	case "gemini", "":
		return gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}, logger)
	}
	return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown llm provider %q", cfg.Provider), common.ErrInvalidInput)
}

// Extractors holds the model-backed venue and vendor adapters.
type Extractors struct {
	Venues  extract.Extractor[entity.VenueFields]
	Vendors extract.Extractor[entity.VendorFields]
}

func NewExtractors(gen llm.Generator, cfg common.LLMConfig, ocrCfg common.OCRConfig, logger *slog.Logger) (Extractors, error) {
	ecfg := extract.Config{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens, AllowEmpty: cfg.AllowEmpty}
	if ocrCfg.Enabled {
		ecfg.TextLayer = ocr.NewExtractor(ocr.Config{
			Pdftotext: ocrCfg.Pdftotext,
			Pdftoppm:  ocrCfg.Pdftoppm,
			Tesseract: ocrCfg.Tesseract,
			Lang:      ocrCfg.Lang,
			DPI:       ocrCfg.DPI,
			MaxPages:  ocrCfg.MaxPages,
		}, logger)
	}
	venues, err := extract.NewVenueExtractor(gen, ecfg, logger)
	if err != nil {
		return Extractors{}, err
	}
	vendors, err := extract.NewVendorExtractor(gen, ecfg, logger)
	if err != nil {
		return Extractors{}, err
	}
	return Extractors{Venues: venues, Vendors: vendors}, nil
}
