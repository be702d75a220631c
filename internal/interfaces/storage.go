package interfaces

import (
	"errors"

	"github.com/gridseye/necomply/internal/models"
)

// ErrAnalysisNotFound is returned by AnalysisStorage.GetAnalysis when no
// record exists for the given id. Callers map it to a "does not exist"
// response rather than a transient failure.
var ErrAnalysisNotFound = errors.New("analysis not found")

// CodeStorage persists the NEC corpus: sections, full articles, and semantic
// chunks. Writes happen only during ingestion; the analysis pipeline reads
// only.
type CodeStorage interface {
	SaveSection(section *models.CodeSection) error
	SaveArticle(article *models.CodeArticle) error
	SaveChunk(chunk *models.CodeChunk) error

	// SectionsByArticles returns sections whose article number is in the
	// given set, capped at limit.
	SectionsByArticles(articles []int, codeVersion string, limit int) ([]models.CodeSection, error)

	// ArticlesByNumbers returns full articles for the given article numbers,
	// capped at limit.
	ArticlesByNumbers(articles []int, codeVersion string, limit int) ([]models.CodeArticle, error)

	// SearchChunks performs nearest-neighbor search by cosine similarity over
	// embedded chunks, returning the top limit matches ranked by descending
	// score.
	SearchChunks(query []float32, codeVersion string, limit int) ([]models.ChunkMatch, error)

	// ChunksWithoutEmbedding returns chunks ingested without vectors, for the
	// embedding backfill pass.
	ChunksWithoutEmbedding(codeVersion string, limit int) ([]models.CodeChunk, error)

	// UpdateChunkEmbedding stores the embedding vector for a chunk.
	UpdateChunkEmbedding(chunkID, codeVersion string, embedding []float32) error

	CountSections() (int, error)
	CountArticles() (int, error)
	CountChunks() (int, error)
}

// AnalysisStorage persists completed analysis records. Insert-only: a record
// is written exactly once per request and never updated.
type AnalysisStorage interface {
	InsertAnalysis(record *models.AnalysisRecord) error

	// GetAnalysis returns the record with the given id, or
	// ErrAnalysisNotFound.
	GetAnalysis(id string) (*models.AnalysisRecord, error)

	ListAnalyses(limit, offset int) ([]*models.AnalysisRecord, error)
	CountAnalyses() (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	CodeStorage() CodeStorage
	AnalysisStorage() AnalysisStorage

	// Ping verifies the underlying store is reachable.
	Ping() error

	Close() error
}
