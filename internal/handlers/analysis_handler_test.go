package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/gridseye/necomply/internal/services/compliance"
	"github.com/gridseye/necomply/internal/services/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type scriptedVision struct {
	responses []string
	calls     int
}

func (v *scriptedVision) AnalyzeImage(ctx context.Context, image interfaces.ImageInput, prompt, systemPrompt string) (string, error) {
	if v.calls >= len(v.responses) {
		return "", errors.New("unexpected vision call")
	}
	response := v.responses[v.calls]
	v.calls++
	return response, nil
}

func (v *scriptedVision) HealthCheck(ctx context.Context) error { return nil }
func (v *scriptedVision) Close() error                          { return nil }

type mapAnalyses struct {
	records map[string]*models.AnalysisRecord
}

func (m *mapAnalyses) InsertAnalysis(record *models.AnalysisRecord) error {
	m.records[record.ID] = record
	return nil
}

func (m *mapAnalyses) GetAnalysis(id string) (*models.AnalysisRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, interfaces.ErrAnalysisNotFound
	}
	return record, nil
}

func (m *mapAnalyses) ListAnalyses(limit, offset int) ([]*models.AnalysisRecord, error) {
	var records []*models.AnalysisRecord
	for _, record := range m.records {
		records = append(records, record)
	}
	return records, nil
}

func (m *mapAnalyses) CountAnalyses() (int, error) { return len(m.records), nil }

type emptyCodeStorage struct{}

func (emptyCodeStorage) SaveSection(*models.CodeSection) error { return nil }
func (emptyCodeStorage) SaveArticle(*models.CodeArticle) error { return nil }
func (emptyCodeStorage) SaveChunk(*models.CodeChunk) error     { return nil }
func (emptyCodeStorage) SectionsByArticles([]int, string, int) ([]models.CodeSection, error) {
	return nil, nil
}
func (emptyCodeStorage) ArticlesByNumbers([]int, string, int) ([]models.CodeArticle, error) {
	return nil, nil
}
func (emptyCodeStorage) SearchChunks([]float32, string, int) ([]models.ChunkMatch, error) {
	return nil, nil
}
func (emptyCodeStorage) ChunksWithoutEmbedding(string, int) ([]models.CodeChunk, error) {
	return nil, nil
}
func (emptyCodeStorage) UpdateChunkEmbedding(string, string, []float32) error { return nil }
func (emptyCodeStorage) CountSections() (int, error)                          { return 0, nil }
func (emptyCodeStorage) CountArticles() (int, error)                          { return 0, nil }
func (emptyCodeStorage) CountChunks() (int, error)                            { return 0, nil }

const visionDescription = "A standby generator with transfer switch.\nSYSTEM_TYPE: generator"

const visionFindings = `[{"id": "rc1", "name": "Generator OCPD", "status": "pass", "standard": "NEC 445.12", "message": "ok", "description": "d", "location": {"sheet": 1, "region": "Generator"}}]`

func newTestHandler(vision interfaces.VisionService, analyses interfaces.AnalysisStorage) *AnalysisHandler {
	config := common.NewDefaultConfig()
	logger := arbor.NewLogger()
	engine := retrieval.NewEngine(emptyCodeStorage{}, nil, &config.Retrieval, logger)
	service := compliance.NewService(vision, engine, analyses, config, logger)
	return NewAnalysisHandler(service, logger)
}

func TestAnalyzeHandler(t *testing.T) {
	vision := &scriptedVision{responses: []string{visionDescription, visionFindings}}
	analyses := &mapAnalyses{records: make(map[string]*models.AnalysisRecord)}
	handler := newTestHandler(vision, analyses)

	body, err := json.Marshal(map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("fake png bytes")),
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.AnalyzeHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record models.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.True(t, strings.HasPrefix(record.ID, "an_"), "analysis id: %s", record.ID)
	assert.Equal(t, models.SystemGenerator, record.SystemType)
	assert.Equal(t, float64(100), record.Summary.ComplianceScore)
	assert.Equal(t, 2, vision.calls)
}

func TestAnalyzeHandlerValidation(t *testing.T) {
	handler := newTestHandler(&scriptedVision{}, &mapAnalyses{records: map[string]*models.AnalysisRecord{}})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing image", body: `{"code_version": "2023"}`},
		{name: "invalid base64", body: `{"image_base64": "not valid base64!!!"}`},
		{name: "malformed json", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.AnalyzeHandler(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAnalyzeHandlerMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(&scriptedVision{}, &mapAnalyses{records: map[string]*models.AnalysisRecord{}})

	req := httptest.NewRequest("GET", "/api/analyze", nil)
	rec := httptest.NewRecorder()
	handler.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeFileHandler(t *testing.T) {
	vision := &scriptedVision{responses: []string{visionDescription, visionFindings}}
	analyses := &mapAnalyses{records: make(map[string]*models.AnalysisRecord)}
	handler := newTestHandler(vision, analyses)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "diagram.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake png bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("code_version", "2023"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/analyze-file", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.AnalyzeFileHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record models.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "2023", record.CodeVersion)
}

func TestGetAnalysisHandler(t *testing.T) {
	analyses := &mapAnalyses{records: map[string]*models.AnalysisRecord{
		"an_found": {ID: "an_found", Status: "completed"},
	}}
	handler := newTestHandler(&scriptedVision{}, analyses)

	req := httptest.NewRequest("GET", "/api/analysis/an_found", nil)
	rec := httptest.NewRecorder()
	handler.GetAnalysisHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var record models.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "an_found", record.ID)
}

func TestGetAnalysisHandlerNotFound(t *testing.T) {
	handler := newTestHandler(&scriptedVision{}, &mapAnalyses{records: map[string]*models.AnalysisRecord{}})

	req := httptest.NewRequest("GET", "/api/analysis/an_missing", nil)
	rec := httptest.NewRecorder()
	handler.GetAnalysisHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAnalysesHandler(t *testing.T) {
	analyses := &mapAnalyses{records: map[string]*models.AnalysisRecord{
		"an_1": {ID: "an_1"},
		"an_2": {ID: "an_2"},
	}}
	handler := newTestHandler(&scriptedVision{}, analyses)

	req := httptest.NewRequest("GET", "/api/analyses?limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ListAnalysesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Analyses []models.AnalysisRecord `json:"analyses"`
		Limit    int                     `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Analyses, 2)
	assert.Equal(t, 10, response.Limit)
}
