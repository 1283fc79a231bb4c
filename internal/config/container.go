package config

import (
	"context"

	"thesis-catalog/internal/domain"
	"thesis-catalog/internal/handler"
	"thesis-catalog/internal/repository"
	"thesis-catalog/internal/service"
	"thesis-catalog/internal/vault"
	"thesis-catalog/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config domain.Config
	Logger domain.Logger

	RecordStore domain.RecordStore
	FileVault   domain.FileVault

	Ingestion domain.IngestionService
	Catalog   domain.CatalogService

	ThesisHandler *handler.ThesisHandler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	store, err := repository.NewSQLiteRecordStore(cfg.GetStorePath(), appLogger)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	fileVault, err := vault.New(cfg.GetVaultRoot(), appLogger)
	if err != nil {
		return nil, err
	}

	pdfText := service.NewFitzText(appLogger)
	rasterizer := service.NewFitzRasterizer()
	metadata := service.NewMetadataExtractor(cfg.GetAuthorDenylist())

	// The keyword model initializes once per process. When it cannot, the
	// extractor stays in its degraded state for the process lifetime and
	// records commit with empty keywords.
	var embedder service.Embedder
	if vertex, err := service.NewVertexEmbedder(ctx, cfg.GetGCPProjectID(), cfg.GetGCPLocation()); err != nil {
		appLogger.Warn("Keyword model unavailable; keywords will be empty", "error", err)
	} else {
		embedder = vertex
	}
	keywords := service.NewEmbeddingKeywordExtractor(embedder, appLogger)

	var watermarker domain.Watermarker
	if cfg.GetWatermarkEnabled() {
		watermarker = service.NewStampWatermarker(cfg.GetWatermarkText(), cfg.GetWatermarkLogoPath(), appLogger)
	}

	ingestion := service.NewIngestionPipeline(
		pdfText,
		rasterizer,
		metadata,
		keywords,
		fileVault,
		store,
		watermarker,
		cfg.GetCourses(),
		cfg.GetKeywordTopN(),
		appLogger,
	)
	catalog := service.NewCatalog(store, fileVault, pdfText, rasterizer, appLogger)

	thesisHandler := handler.NewThesisHandler(ingestion, catalog, cfg.GetMaxFileSize(), appLogger)

	return &Container{
		Config:        cfg,
		Logger:        appLogger,
		RecordStore:   store,
		FileVault:     fileVault,
		Ingestion:     ingestion,
		Catalog:       catalog,
		ThesisHandler: thesisHandler,
	}, nil
}
