package retrieval

import (
	"context"
	"fmt"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/ternarybob/arbor"
)

// Bundle holds the combined retrieval result for one analysis: the
// category-matched sections and articles plus the semantically nearest
// chunks ordered by descending similarity.
type Bundle struct {
	Sections []models.CodeSection
	Articles []models.CodeArticle
	Chunks   []models.ChunkMatch
}

// Engine performs hybrid code retrieval. Category lookup maps the
// detected system type to its relevant articles and loads their
// sections and full texts. Semantic search embeds the diagram
// description and ranks stored chunks by cosine similarity.
type Engine struct {
	storage  interfaces.CodeStorage
	embedder interfaces.EmbeddingService
	config   *common.RetrievalConfig
	logger   arbor.ILogger
}

// NewEngine creates a retrieval engine. The embedder may be nil, in
// which case semantic search is skipped and results carry category
// matches only.
func NewEngine(storage interfaces.CodeStorage, embedder interfaces.EmbeddingService, config *common.RetrievalConfig, logger arbor.ILogger) *Engine {
	return &Engine{
		storage:  storage,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

// Fuse runs both retrieval paths for the given system type and diagram
// description. Category lookup failures are fatal since the pipeline
// cannot evaluate compliance without code text. Semantic search is best
// effort: embedding or search failures are logged and the bundle is
// returned without chunks.
func (e *Engine) Fuse(ctx context.Context, systemType models.SystemType, description, codeVersion string) (*Bundle, error) {
	articles := systemType.Articles()

	e.logger.Debug().
		Str("system_type", string(systemType)).
		Int("article_count", len(articles)).
		Str("code_version", codeVersion).
		Msg("Starting hybrid code retrieval")

	sections, err := e.storage.SectionsByArticles(articles, codeVersion, e.config.MaxSections)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve code sections: %w", err)
	}

	fullArticles, err := e.storage.ArticlesByNumbers(articles, codeVersion, e.config.MaxArticles)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve code articles: %w", err)
	}

	bundle := &Bundle{
		Sections: sections,
		Articles: fullArticles,
	}

	bundle.Chunks = e.searchChunks(ctx, description, codeVersion)

	e.logger.Info().
		Str("system_type", string(systemType)).
		Int("sections", len(bundle.Sections)).
		Int("articles", len(bundle.Articles)).
		Int("chunks", len(bundle.Chunks)).
		Msg("Hybrid code retrieval completed")

	return bundle, nil
}

// searchChunks embeds a prefix of the description and returns the top
// matching chunks. Any failure downgrades to an empty result.
func (e *Engine) searchChunks(ctx context.Context, description, codeVersion string) []models.ChunkMatch {
	if e.embedder == nil {
		e.logger.Debug().Msg("No embedding service configured, skipping semantic search")
		return nil
	}
	if description == "" {
		return nil
	}

	query := description
	if e.config.QueryPrefixLimit > 0 && len(query) > e.config.QueryPrefixLimit {
		query = common.TruncatePrefix(query, e.config.QueryPrefixLimit)
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Query embedding failed, skipping semantic search")
		return nil
	}

	matches, err := e.storage.SearchChunks(embedding, codeVersion, e.config.ChunkTopK)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Chunk similarity search failed, skipping semantic search")
		return nil
	}

	return matches
}
