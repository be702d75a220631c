package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/services/ingest"
	"github.com/ternarybob/arbor"
)

// maxIngestBytes caps corpus uploads at 50 MB.
const maxIngestBytes = 50 << 20

// IngestHandler handles HTTP requests for corpus ingestion
type IngestHandler struct {
	service *ingest.Service
	storage interfaces.CodeStorage
	logger  arbor.ILogger
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(service *ingest.Service, storage interfaces.CodeStorage, logger arbor.ILogger) *IngestHandler {
	return &IngestHandler{
		service: service,
		storage: storage,
		logger:  logger,
	}
}

// ingestRequest is the JSON body for POST /api/ingest.
type ingestRequest struct {
	Text        string `json:"text"`
	CodeVersion string `json:"code_version"`
}

// IngestCorpusHandler handles POST /api/ingest. A multipart body uploads
// a PDF (field "file", optional "code_version"); a JSON body carries raw
// corpus text.
func (h *IngestHandler) IngestCorpusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		h.ingestPDF(w, r)
		return
	}
	h.ingestText(w, r)
}

func (h *IngestHandler) ingestText(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxIngestBytes)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Text == "" {
		WriteError(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	result, err := h.service.IngestText(r.Context(), req.Text, req.CodeVersion)
	if err != nil {
		h.logger.Error().Err(err).Msg("Ingestion failed")
		WriteError(w, http.StatusInternalServerError, "Ingestion failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func (h *IngestHandler) ingestPDF(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxIngestBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "application/pdf" && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		WriteError(w, http.StatusBadRequest, "Only PDF uploads are accepted")
		return
	}

	// IngestPDF reads from disk, so spool the upload to a temp file
	tempFile, err := os.CreateTemp("", "necomply-upload-*.pdf")
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create temp file for upload")
		WriteError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := io.Copy(tempFile, io.LimitReader(file, maxIngestBytes)); err != nil {
		tempFile.Close()
		h.logger.Error().Err(err).Msg("Failed to write uploaded PDF")
		WriteError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	if err := tempFile.Close(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to close uploaded PDF")
		WriteError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	result, err := h.service.IngestPDF(r.Context(), tempPath, r.FormValue("code_version"))
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("PDF ingestion failed")
		WriteError(w, http.StatusInternalServerError, "Ingestion failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// BackfillHandler handles POST /api/ingest/backfill, triggering an
// immediate embedding backfill run.
func (h *IngestHandler) BackfillHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	embedded, err := h.service.BackfillEmbeddings(r.Context(), r.URL.Query().Get("code_version"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Embedding backfill failed")
		WriteError(w, http.StatusInternalServerError, "Backfill failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"embedded": embedded})
}

// StatsHandler handles GET /api/ingest/stats with corpus counts.
func (h *IngestHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	sections, err := h.storage.CountSections()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to count sections")
		return
	}
	articles, err := h.storage.CountArticles()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to count articles")
		return
	}
	chunks, err := h.storage.CountChunks()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to count chunks")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{
		"sections": sections,
		"articles": articles,
		"chunks":   chunks,
	})
}
