package compliance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/gridseye/necomply/internal/services/retrieval"
	"github.com/ternarybob/arbor"
)

// fakeVision scripts responses for the two vision calls the pipeline
// makes: first the description, then the compliance evaluation.
type fakeVision struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeVision) AnalyzeImage(ctx context.Context, image interfaces.ImageInput, prompt, systemPrompt string) (string, error) {
	call := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if call < len(f.errs) && f.errs[call] != nil {
		return "", f.errs[call]
	}
	if call < len(f.responses) {
		return f.responses[call], nil
	}
	return "", errors.New("unexpected vision call")
}

func (f *fakeVision) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeVision) Close() error                          { return nil }

type memoryAnalyses struct {
	records map[string]*models.AnalysisRecord
}

func newMemoryAnalyses() *memoryAnalyses {
	return &memoryAnalyses{records: make(map[string]*models.AnalysisRecord)}
}

func (m *memoryAnalyses) InsertAnalysis(record *models.AnalysisRecord) error {
	if _, exists := m.records[record.ID]; exists {
		return errors.New("analysis already exists")
	}
	m.records[record.ID] = record
	return nil
}

func (m *memoryAnalyses) GetAnalysis(id string) (*models.AnalysisRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, interfaces.ErrAnalysisNotFound
	}
	return record, nil
}

func (m *memoryAnalyses) ListAnalyses(limit, offset int) ([]*models.AnalysisRecord, error) {
	var records []*models.AnalysisRecord
	for _, record := range m.records {
		records = append(records, record)
	}
	return records, nil
}

func (m *memoryAnalyses) CountAnalyses() (int, error) { return len(m.records), nil }

type fixedCodeStorage struct {
	sections     []models.CodeSection
	lastArticles []int
}

func (s *fixedCodeStorage) SaveSection(*models.CodeSection) error { return nil }
func (s *fixedCodeStorage) SaveArticle(*models.CodeArticle) error { return nil }
func (s *fixedCodeStorage) SaveChunk(*models.CodeChunk) error     { return nil }

func (s *fixedCodeStorage) SectionsByArticles(articles []int, codeVersion string, limit int) ([]models.CodeSection, error) {
	s.lastArticles = articles
	return s.sections, nil
}
func (s *fixedCodeStorage) ArticlesByNumbers([]int, string, int) ([]models.CodeArticle, error) {
	return nil, nil
}
func (s *fixedCodeStorage) SearchChunks([]float32, string, int) ([]models.ChunkMatch, error) {
	return nil, nil
}
func (s *fixedCodeStorage) ChunksWithoutEmbedding(string, int) ([]models.CodeChunk, error) {
	return nil, nil
}
func (s *fixedCodeStorage) UpdateChunkEmbedding(string, string, []float32) error { return nil }
func (s *fixedCodeStorage) CountSections() (int, error)                          { return len(s.sections), nil }
func (s *fixedCodeStorage) CountArticles() (int, error)                          { return 0, nil }
func (s *fixedCodeStorage) CountChunks() (int, error)                            { return 0, nil }

func newTestService(vision *fakeVision, analyses interfaces.AnalysisStorage) (*Service, *fixedCodeStorage) {
	config := common.NewDefaultConfig()
	logger := arbor.NewLogger()
	storage := &fixedCodeStorage{
		sections: []models.CodeSection{
			{Section: "445.12", Title: "Overcurrent Protection", FullText: "Generators shall be protected.", Article: 445, CodeVersion: "2023"},
		},
	}
	engine := retrieval.NewEngine(storage, nil, &config.Retrieval, logger)
	return NewService(vision, engine, analyses, config, logger), storage
}

const generatorDescription = `This diagram shows a standby diesel generator feeding an automatic transfer switch.
Protection includes 50/51 relays on the generator breaker. Grounding is shown at the neutral point.
SYSTEM_TYPE: generator`

const generatorFindings = `[
  {"id": "rc1", "name": "Generator OCPD", "status": "pass", "standard": "NEC 445.12", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "Generator"}},
  {"id": "rc2", "name": "Transfer Equipment", "status": "pass", "standard": "NEC 702.4", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "ATS"}},
  {"id": "rc3", "name": "System Grounding", "status": "pass", "standard": "NEC 250.30", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "Ground"}},
  {"id": "rc4", "name": "Conductor Protection", "status": "pass", "standard": "NEC 240.4", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "Feeder"}},
  {"id": "rc5", "name": "Emergency Wiring", "status": "pass", "standard": "NEC 700.10", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "Feeder"}},
  {"id": "rc6", "name": "Conductor Ampacity", "status": "warning", "standard": "NEC 445.13", "message": "size unclear", "description": "d", "location": {"sheet": 1, "region": "Generator"}},
  {"id": "rc7", "name": "Solar Interconnection", "status": "not_applicable", "standard": "NEC 690.1", "message": "no PV", "description": "d", "location": {"sheet": 1, "region": "N/A"}},
  {"id": "rc8", "name": "EV Charging", "status": "not_applicable", "standard": "NEC 625.1", "message": "no EVSE", "description": "d", "location": {"sheet": 1, "region": "N/A"}}
]`

func TestAnalyzePipeline(t *testing.T) {
	vision := &fakeVision{responses: []string{generatorDescription, generatorFindings}}
	analyses := newMemoryAnalyses()
	service, _ := newTestService(vision, analyses)

	image := interfaces.ImageInput{Data: []byte{0x89, 0x50, 0x4e, 0x47}, MimeType: "image/png"}
	record, err := service.Analyze(context.Background(), image, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if vision.calls != 2 {
		t.Errorf("expected 2 vision calls, got %d", vision.calls)
	}
	if !strings.HasPrefix(record.ID, "an_") {
		t.Errorf("analysis id = %s, want an_ prefix", record.ID)
	}
	if record.Status != "completed" {
		t.Errorf("status = %s", record.Status)
	}
	if record.SystemType != models.SystemGenerator {
		t.Errorf("system type = %s, want generator", record.SystemType)
	}
	if record.CodeVersion != "2023" {
		t.Errorf("code version = %s, want default 2023", record.CodeVersion)
	}
	if record.DiagramDescription != generatorDescription {
		t.Error("description not preserved verbatim")
	}
	if record.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	if len(record.Findings) != 8 {
		t.Fatalf("findings = %d, want 8", len(record.Findings))
	}
	summary := record.Summary
	if summary.PassingCount != 5 || summary.WarningCount != 1 || summary.FailingCount != 0 || summary.NotApplicableCount != 2 {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.TotalCodesEvaluated != 6 {
		t.Errorf("TotalCodesEvaluated = %d, want 6", summary.TotalCodesEvaluated)
	}
	// (5*100 + 50) / 6 rounds to 91.7
	if summary.ComplianceScore != 91.7 {
		t.Errorf("ComplianceScore = %v, want 91.7", summary.ComplianceScore)
	}

	// The compliance prompt must carry the description and retrieved code
	compliancePrompt := vision.prompts[1]
	if !strings.Contains(compliancePrompt, "standby diesel generator") {
		t.Error("compliance prompt missing description")
	}
	if !strings.Contains(compliancePrompt, "NEC 445.12") {
		t.Error("compliance prompt missing retrieved section")
	}

	// Record must be retrievable by id
	stored, err := service.GetAnalysis(record.ID)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if stored.ID != record.ID {
		t.Errorf("stored id = %s", stored.ID)
	}
}

func TestAnalyzeKeywordDetectionScenario(t *testing.T) {
	// No explicit marker in the description: the keyword fallback decides.
	description := `The drawing shows a 500 kW diesel generator with a paralleling switchgear lineup.
Neutral reactor grounding is provided at the generator neutral.`
	findings := `[
  {"id": "rc1", "name": "Generator OCPD", "status": "pass", "standard": "NEC 445.12", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "Generator"}},
  {"id": "rc2", "name": "System Grounding", "status": "pass", "standard": "NEC 250.30", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "Ground"}},
  {"id": "rc3", "name": "Conductor Ampacity", "status": "warning", "standard": "NEC 445.13", "message": "size unclear", "description": "d", "location": {"sheet": 1, "region": "Generator"}}
]`

	vision := &fakeVision{responses: []string{description, findings}}
	service, storage := newTestService(vision, newMemoryAnalyses())

	record, err := service.Analyze(context.Background(), interfaces.ImageInput{Data: []byte{1}}, "2023")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if record.SystemType != models.SystemGenerator {
		t.Errorf("system type = %s, want generator", record.SystemType)
	}

	wantArticles := []int{445, 700, 702, 705, 250, 240}
	if len(storage.lastArticles) != len(wantArticles) {
		t.Fatalf("queried articles = %v, want %v", storage.lastArticles, wantArticles)
	}
	for i, article := range wantArticles {
		if storage.lastArticles[i] != article {
			t.Errorf("queried articles = %v, want %v", storage.lastArticles, wantArticles)
			break
		}
	}

	if record.Summary.TotalCodesEvaluated != 3 {
		t.Errorf("TotalCodesEvaluated = %d, want 3", record.Summary.TotalCodesEvaluated)
	}
	// (2*100 + 50) / 3 = 83.333... rounds to 83.3
	if record.Summary.ComplianceScore != 83.3 {
		t.Errorf("ComplianceScore = %v, want 83.3", record.Summary.ComplianceScore)
	}
}

func TestAnalyzeEmptyImage(t *testing.T) {
	service, _ := newTestService(&fakeVision{}, newMemoryAnalyses())

	_, err := service.Analyze(context.Background(), interfaces.ImageInput{}, "2023")
	if err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestAnalyzeVisionFailure(t *testing.T) {
	vision := &fakeVision{errs: []error{errors.New("model unavailable")}}
	analyses := newMemoryAnalyses()
	service, _ := newTestService(vision, analyses)

	_, err := service.Analyze(context.Background(), interfaces.ImageInput{Data: []byte{1}}, "2023")
	if err == nil {
		t.Fatal("expected error when description call fails")
	}
	if count, _ := analyses.CountAnalyses(); count != 0 {
		t.Error("no record must be stored on failure")
	}
}

func TestAnalyzeUnparseableFindingsStillCompletes(t *testing.T) {
	vision := &fakeVision{responses: []string{generatorDescription, "I cannot produce JSON today."}}
	analyses := newMemoryAnalyses()
	service, _ := newTestService(vision, analyses)

	record, err := service.Analyze(context.Background(), interfaces.ImageInput{Data: []byte{1}}, "2023")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(record.Findings) != 1 || record.Findings[0].ID != "error" {
		t.Fatalf("expected synthetic parse error finding, got %+v", record.Findings)
	}
	if record.Summary.WarningCount != 1 || record.Summary.ComplianceScore != 50 {
		t.Errorf("summary = %+v", record.Summary)
	}
	if count, _ := analyses.CountAnalyses(); count != 1 {
		t.Error("record must still be stored")
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	service, _ := newTestService(&fakeVision{}, newMemoryAnalyses())

	_, err := service.GetAnalysis("an_missing")
	if !errors.Is(err, interfaces.ErrAnalysisNotFound) {
		t.Errorf("expected ErrAnalysisNotFound, got %v", err)
	}
}
