package badger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// CodeStorage implements the CodeStorage interface for Badger
type CodeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCodeStorage creates a new CodeStorage instance
func NewCodeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CodeStorage {
	return &CodeStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CodeStorage) SaveSection(section *models.CodeSection) error {
	if section.Section == "" {
		return fmt.Errorf("section identifier is required")
	}
	if section.CodeVersion == "" {
		return fmt.Errorf("code version is required")
	}

	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(section.Key(), section); err != nil {
		return fmt.Errorf("failed to save section %s: %w", section.Section, err)
	}
	return nil
}

func (s *CodeStorage) SaveArticle(article *models.CodeArticle) error {
	if article.Article == 0 {
		return fmt.Errorf("article number is required")
	}
	if article.CodeVersion == "" {
		return fmt.Errorf("code version is required")
	}

	if err := s.db.Store().Upsert(article.Key(), article); err != nil {
		return fmt.Errorf("failed to save article %d: %w", article.Article, err)
	}
	return nil
}

func (s *CodeStorage) SaveChunk(chunk *models.CodeChunk) error {
	if chunk.ChunkID == "" {
		return fmt.Errorf("chunk ID is required")
	}
	if chunk.CodeVersion == "" {
		return fmt.Errorf("code version is required")
	}

	if err := s.db.Store().Upsert(chunk.Key(), chunk); err != nil {
		return fmt.Errorf("failed to save chunk %s: %w", chunk.ChunkID, err)
	}
	return nil
}

func (s *CodeStorage) SectionsByArticles(articles []int, codeVersion string, limit int) ([]models.CodeSection, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	query := badgerhold.Where("Article").In(toInterfaceSlice(articles)...).And("CodeVersion").Eq(codeVersion)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var sections []models.CodeSection
	if err := s.db.Store().Find(&sections, query); err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}

	// Stable ordering by section identifier for deterministic context assembly
	sort.Slice(sections, func(i, j int) bool {
		if sections[i].Article != sections[j].Article {
			return sections[i].Article < sections[j].Article
		}
		return sections[i].Section < sections[j].Section
	})

	return sections, nil
}

func (s *CodeStorage) ArticlesByNumbers(articles []int, codeVersion string, limit int) ([]models.CodeArticle, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	query := badgerhold.Where("Article").In(toInterfaceSlice(articles)...).And("CodeVersion").Eq(codeVersion)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var result []models.CodeArticle
	if err := s.db.Store().Find(&result, query); err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Article < result[j].Article
	})

	return result, nil
}

// SearchChunks performs brute-force cosine similarity over embedded chunks.
// Badger has no native vector index; the corpus is small enough (a few
// thousand chunks per NEC edition) that a linear scan stays well under a
// millisecond budget per query.
func (s *CodeStorage) SearchChunks(query []float32, codeVersion string, limit int) ([]models.ChunkMatch, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}
	if limit <= 0 {
		limit = 10
	}

	var chunks []models.CodeChunk
	if err := s.db.Store().Find(&chunks, badgerhold.Where("CodeVersion").Eq(codeVersion)); err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	matches := make([]models.ChunkMatch, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(query, chunk.Embedding)
		matches = append(matches, models.ChunkMatch{Chunk: chunk, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (s *CodeStorage) ChunksWithoutEmbedding(codeVersion string, limit int) ([]models.CodeChunk, error) {
	var chunks []models.CodeChunk
	if err := s.db.Store().Find(&chunks, badgerhold.Where("CodeVersion").Eq(codeVersion)); err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	var pending []models.CodeChunk
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			pending = append(pending, chunk)
			if limit > 0 && len(pending) >= limit {
				break
			}
		}
	}
	return pending, nil
}

func (s *CodeStorage) UpdateChunkEmbedding(chunkID, codeVersion string, embedding []float32) error {
	key := codeVersion + ":" + chunkID

	var chunk models.CodeChunk
	if err := s.db.Store().Get(key, &chunk); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("chunk not found: %s", chunkID)
		}
		return fmt.Errorf("failed to get chunk: %w", err)
	}

	chunk.Embedding = embedding
	if err := s.db.Store().Upsert(key, &chunk); err != nil {
		return fmt.Errorf("failed to update chunk embedding: %w", err)
	}
	return nil
}

func (s *CodeStorage) CountSections() (int, error) {
	count, err := s.db.Store().Count(&models.CodeSection{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count sections: %w", err)
	}
	return int(count), nil
}

func (s *CodeStorage) CountArticles() (int, error) {
	count, err := s.db.Store().Count(&models.CodeArticle{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return int(count), nil
}

func (s *CodeStorage) CountChunks() (int, error) {
	count, err := s.db.Store().Count(&models.CodeChunk{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched dimensions or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func toInterfaceSlice(values []int) []interface{} {
	result := make([]interface{}, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}
