package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/models"
	"github.com/gridseye/necomply/internal/services/compliance"
	"github.com/ternarybob/arbor"
)

// maxUploadBytes caps diagram uploads at 20 MB.
const maxUploadBytes = 20 << 20

// AnalysisHandler handles HTTP requests for diagram compliance analysis
type AnalysisHandler struct {
	service  *compliance.Service
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service *compliance.Service, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// AnalyzeHandler handles POST /api/analyze with a JSON body carrying a
// base64-encoded diagram image.
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid base64 image data")
		return
	}

	image := interfaces.ImageInput{Data: imageData, MimeType: sniffImageMime(imageData)}

	record, err := h.service.Analyze(r.Context(), image, req.CodeVersion)
	if err != nil {
		h.logger.Error().Err(err).Msg("Analysis failed")
		WriteError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// AnalyzeFileHandler handles POST /api/analyze-file with a multipart
// form upload (field "file", optional "code_version").
func (h *AnalysisHandler) AnalyzeFileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(imageData) == 0 {
		WriteError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffImageMime(imageData)
	}

	image := interfaces.ImageInput{Data: imageData, MimeType: mimeType}

	record, err := h.service.Analyze(r.Context(), image, r.FormValue("code_version"))
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Analysis failed")
		WriteError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// GetAnalysisHandler handles GET /api/analysis/{id}
func (h *AnalysisHandler) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/analysis/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid analysis id")
		return
	}

	record, err := h.service.GetAnalysis(id)
	if err != nil {
		if errors.Is(err, interfaces.ErrAnalysisNotFound) {
			WriteError(w, http.StatusNotFound, "Analysis not found: "+id)
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to load analysis")
		WriteError(w, http.StatusInternalServerError, "Failed to load analysis")
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// ListAnalysesHandler handles GET /api/analyses
func (h *AnalysisHandler) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, offset := GetPaginationParams(r)

	records, err := h.service.ListAnalyses(limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list analyses")
		WriteError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	if records == nil {
		records = []*models.AnalysisRecord{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": records,
		"limit":    limit,
		"offset":   offset,
	})
}

// sniffImageMime detects the image type from magic bytes, defaulting to
// PNG which is what diagram exports overwhelmingly use.
func sniffImageMime(data []byte) string {
	contentType := http.DetectContentType(data)
	if strings.HasPrefix(contentType, "image/") {
		return contentType
	}
	return "image/png"
}
