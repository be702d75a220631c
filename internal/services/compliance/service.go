package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/gridseye/necomply/internal/services/retrieval"
	"github.com/ternarybob/arbor"
)

// Service runs the full compliance pipeline: describe the diagram with
// a vision model, retrieve relevant code text, evaluate the diagram
// against it with a second vision call, and persist the result.
type Service struct {
	vision    interfaces.VisionService
	retrieval *retrieval.Engine
	analyses  interfaces.AnalysisStorage
	config    *common.Config
	logger    arbor.ILogger
}

// NewService creates the compliance service.
func NewService(vision interfaces.VisionService, engine *retrieval.Engine, analyses interfaces.AnalysisStorage, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		vision:    vision,
		retrieval: engine,
		analyses:  analyses,
		config:    config,
		logger:    logger,
	}
}

// Analyze executes the pipeline for one diagram image and returns the
// persisted analysis record. codeVersion defaults to the configured
// ingest edition when empty.
func (s *Service) Analyze(ctx context.Context, image interfaces.ImageInput, codeVersion string) (*models.AnalysisRecord, error) {
	if len(image.Data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if codeVersion == "" {
		codeVersion = s.config.Ingest.CodeVersion
	}

	analysisID := common.NewAnalysisID()
	logger := s.logger.WithCorrelationId(analysisID)

	// Step 1: describe the diagram and detect the system type
	logger.Info().Msg("Analyzing diagram")
	description, err := s.vision.AnalyzeImage(ctx, image, visionUserPrompt, visionSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("diagram analysis failed: %w", err)
	}

	systemType := DetectSystemType(description)
	logger.Info().
		Int("description_length", len(description)).
		Str("system_type", string(systemType)).
		Msg("Diagram described")

	// Step 2: hybrid code retrieval
	bundle, err := s.retrieval.Fuse(ctx, systemType, description, codeVersion)
	if err != nil {
		return nil, fmt.Errorf("code retrieval failed: %w", err)
	}

	// Step 3: compliance evaluation against the assembled context
	logger.Info().Msg("Checking compliance")
	promptContext := BuildContext(description, bundle, &s.config.Context)

	response, err := s.vision.AnalyzeImage(ctx, image, promptContext, complianceSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("compliance check failed: %w", err)
	}

	findings := ParseFindings(response)
	summary := Summarize(findings)

	logger.Info().
		Int("findings", len(findings)).
		Int("passing", summary.PassingCount).
		Int("warning", summary.WarningCount).
		Int("failing", summary.FailingCount).
		Int("not_applicable", summary.NotApplicableCount).
		Float64("score", summary.ComplianceScore).
		Msg("Compliance findings generated")

	record := &models.AnalysisRecord{
		ID:                 analysisID,
		Status:             "completed",
		CreatedAt:          time.Now().UTC(),
		CodeVersion:        codeVersion,
		SystemType:         systemType,
		DiagramDescription: description,
		Findings:           findings,
		Summary:            summary,
	}

	// Step 4: persist
	if err := s.analyses.InsertAnalysis(record); err != nil {
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}

	logger.Info().Msg("Analysis complete and stored")
	return record, nil
}

// GetAnalysis returns a stored analysis by id.
func (s *Service) GetAnalysis(id string) (*models.AnalysisRecord, error) {
	return s.analyses.GetAnalysis(id)
}

// ListAnalyses returns stored analyses, newest first.
func (s *Service) ListAnalyses(limit, offset int) ([]*models.AnalysisRecord, error) {
	return s.analyses.ListAnalyses(limit, offset)
}
