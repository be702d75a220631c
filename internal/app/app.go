package app

import (
	"fmt"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/handlers"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/services/compliance"
	"github.com/gridseye/necomply/internal/services/ingest"
	"github.com/gridseye/necomply/internal/services/llm"
	"github.com/gridseye/necomply/internal/services/pdf"
	"github.com/gridseye/necomply/internal/services/retrieval"
	"github.com/gridseye/necomply/internal/storage/badger"
	"github.com/ternarybob/arbor"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// LLM services
	VisionService    interfaces.VisionService
	EmbeddingService interfaces.EmbeddingService

	// Domain services
	RetrievalEngine   *retrieval.Engine
	ComplianceService *compliance.Service
	IngestService     *ingest.Service
	BackfillScheduler *ingest.Scheduler
	PDFExtractor      interfaces.PDFExtractor

	// HTTP handlers
	AnalysisHandler *handlers.AnalysisHandler
	IngestHandler   *handlers.IngestHandler
	StatusHandler   *handlers.StatusHandler
}

// New creates and wires all application components.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	// Storage first, everything depends on it
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// LLM services (vision provider + optional embedder)
	vision, embedder, err := llm.NewServices(config, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize LLM services: %w", err)
	}

	extractor := pdf.NewExtractor(logger)

	engine := retrieval.NewEngine(storageManager.CodeStorage(), embedder, &config.Retrieval, logger)
	complianceService := compliance.NewService(vision, engine, storageManager.AnalysisStorage(), config, logger)
	ingestService := ingest.NewService(storageManager.CodeStorage(), extractor, embedder, &config.Ingest, logger)

	app := &App{
		Config:            config,
		Logger:            logger,
		StorageManager:    storageManager,
		VisionService:     vision,
		EmbeddingService:  embedder,
		RetrievalEngine:   engine,
		ComplianceService: complianceService,
		IngestService:     ingestService,
		PDFExtractor:      extractor,
		AnalysisHandler:   handlers.NewAnalysisHandler(complianceService, logger),
		IngestHandler:     handlers.NewIngestHandler(ingestService, storageManager.CodeStorage(), logger),
		StatusHandler:     handlers.NewStatusHandler(storageManager, vision, logger),
	}

	// Backfill only makes sense with an embedder available
	if embedder != nil {
		app.BackfillScheduler = ingest.NewScheduler(ingestService, config.Ingest.CodeVersion, logger)
		if err := app.BackfillScheduler.Start(config.Ingest.BackfillSchedule); err != nil {
			logger.Warn().Err(err).Msg("Failed to start embedding backfill scheduler")
			app.BackfillScheduler = nil
		}
	}

	logger.Info().Msg("Application initialized")
	return app, nil
}

// Close shuts down all application components in reverse dependency order.
func (a *App) Close() {
	if a.BackfillScheduler != nil {
		a.BackfillScheduler.Stop()
	}

	if a.VisionService != nil {
		if err := a.VisionService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close vision service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	a.Logger.Info().Msg("Application closed")
}
