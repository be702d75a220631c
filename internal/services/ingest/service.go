package ingest

import (
	"context"
	"fmt"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/ternarybob/arbor"
)

// Result summarizes one ingestion run.
type Result struct {
	Sections int `json:"sections"`
	Articles int `json:"articles"`
	Chunks   int `json:"chunks"`
	Embedded int `json:"embedded"`
	Errors   int `json:"errors"`
}

// Service loads NEC corpus text into storage: sections with categories,
// full articles, and optionally embedded chunks for semantic search.
type Service struct {
	storage   interfaces.CodeStorage
	extractor interfaces.PDFExtractor
	embedder  interfaces.EmbeddingService
	config    *common.IngestConfig
	logger    arbor.ILogger
}

// NewService creates the ingestion service. The embedder may be nil,
// in which case chunks are stored without vectors and picked up later
// by the backfill pass.
func NewService(storage interfaces.CodeStorage, extractor interfaces.PDFExtractor, embedder interfaces.EmbeddingService, config *common.IngestConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		extractor: extractor,
		embedder:  embedder,
		config:    config,
		logger:    logger,
	}
}

// IngestPDF extracts text from the PDF at the given path and ingests it.
func (s *Service) IngestPDF(ctx context.Context, path, codeVersion string) (*Result, error) {
	s.logger.Info().Str("path", path).Str("code_version", codeVersion).Msg("Starting PDF ingestion")

	text, err := s.extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("PDF extraction failed: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("no text extracted from PDF: %s", path)
	}

	return s.IngestText(ctx, text, codeVersion)
}

// IngestText parses raw code text and stores sections, articles, and
// chunks. Individual save failures are counted but do not abort the run.
func (s *Service) IngestText(ctx context.Context, text, codeVersion string) (*Result, error) {
	if codeVersion == "" {
		codeVersion = s.config.CodeVersion
	}

	result := &Result{}

	sections := ParseSections(text, s.config.SectionTextLimit, codeVersion)
	for i := range sections {
		if err := s.storage.SaveSection(&sections[i]); err != nil {
			s.logger.Warn().Err(err).Str("section", sections[i].Section).Msg("Failed to save section")
			result.Errors++
			continue
		}
		result.Sections++
	}

	articles := ParseArticles(text, codeVersion)
	for i := range articles {
		if err := s.storage.SaveArticle(&articles[i]); err != nil {
			s.logger.Warn().Err(err).Int("article", articles[i].Article).Msg("Failed to save article")
			result.Errors++
			continue
		}
		result.Articles++
	}

	for _, article := range articles {
		if err := s.ingestChunks(ctx, &article, result); err != nil {
			s.logger.Warn().Err(err).Int("article", article.Article).Msg("Failed to chunk article")
			result.Errors++
		}
	}

	s.logger.Info().
		Str("code_version", codeVersion).
		Int("sections", result.Sections).
		Int("articles", result.Articles).
		Int("chunks", result.Chunks).
		Int("embedded", result.Embedded).
		Int("errors", result.Errors).
		Msg("Ingestion completed")

	return result, nil
}

// ingestChunks windows one article's content and stores the chunks,
// embedding them inline when enabled and an embedder is available.
func (s *Service) ingestChunks(ctx context.Context, article *models.CodeArticle, result *Result) error {
	chunks := ChunkText(article.FullContent, s.config.ChunkSize, s.config.ChunkOverlap)

	for i, chunk := range chunks {
		record := &models.CodeChunk{
			ChunkID:      fmt.Sprintf("%d_%d", article.Article, i),
			Article:      article.Article,
			ArticleTitle: article.Title,
			Text:         chunk.Text,
			StartPos:     chunk.StartPos,
			EndPos:       chunk.EndPos,
			CodeVersion:  article.CodeVersion,
		}

		if s.config.Embeddings && s.embedder != nil {
			embedding, err := s.embedder.Embed(ctx, embeddingInput(chunk.Text))
			if err != nil {
				s.logger.Warn().Err(err).Str("chunk_id", record.ChunkID).Msg("Chunk embedding failed, storing without vector")
			} else {
				record.Embedding = embedding
				result.Embedded++
			}
		}

		if err := s.storage.SaveChunk(record); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", record.ChunkID, err)
		}
		result.Chunks++
	}

	return nil
}

// BackfillEmbeddings embeds chunks that were stored without vectors, up
// to the configured per-run limit. Returns the number embedded.
func (s *Service) BackfillEmbeddings(ctx context.Context, codeVersion string) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("no embedding service available for backfill")
	}
	if codeVersion == "" {
		codeVersion = s.config.CodeVersion
	}

	pending, err := s.storage.ChunksWithoutEmbedding(codeVersion, s.config.BackfillLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending chunks: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	s.logger.Info().Int("pending", len(pending)).Str("code_version", codeVersion).Msg("Starting embedding backfill")

	embedded := 0
	for _, chunk := range pending {
		embedding, err := s.embedder.Embed(ctx, embeddingInput(chunk.Text))
		if err != nil {
			s.logger.Warn().Err(err).Str("chunk_id", chunk.ChunkID).Msg("Backfill embedding failed")
			continue
		}
		if err := s.storage.UpdateChunkEmbedding(chunk.ChunkID, codeVersion, embedding); err != nil {
			s.logger.Warn().Err(err).Str("chunk_id", chunk.ChunkID).Msg("Failed to store backfilled embedding")
			continue
		}
		embedded++
	}

	s.logger.Info().Int("embedded", embedded).Msg("Embedding backfill completed")
	return embedded, nil
}

// embeddingInput caps chunk text sent to the embedding API.
func embeddingInput(text string) string {
	const limit = 2000
	return common.TruncatePrefix(text, limit)
}
