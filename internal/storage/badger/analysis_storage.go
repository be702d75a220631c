package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// AnalysisStorage implements the AnalysisStorage interface for Badger.
// Records are insert-only: written exactly once per analysis and never
// updated, so identifier collisions are the only write hazard and fresh
// UUIDs rule those out.
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AnalysisStorage) InsertAnalysis(record *models.AnalysisRecord) error {
	if record.ID == "" {
		return fmt.Errorf("analysis ID is required")
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Insert(record.ID, record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("analysis already exists: %s", record.ID)
		}
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	s.logger.Debug().Str("analysis_id", record.ID).Msg("Analysis record stored")
	return nil
}

func (s *AnalysisStorage) GetAnalysis(id string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &record, nil
}

func (s *AnalysisStorage) ListAnalyses(limit, offset int) ([]*models.AnalysisRecord, error) {
	var records []models.AnalysisRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	// Newest first
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(records) {
			return nil, nil
		}
		records = records[offset:]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	result := make([]*models.AnalysisRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *AnalysisStorage) CountAnalyses() (int, error) {
	count, err := s.db.Store().Count(&models.AnalysisRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return int(count), nil
}
