package handlers

import (
	"net/http"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	storage interfaces.StorageManager
	vision  interfaces.VisionService
	logger  arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(storage interfaces.StorageManager, vision interfaces.VisionService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		storage: storage,
		vision:  vision,
		logger:  logger,
	}
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetFullVersion(),
	})
}

// HealthHandler handles GET /api/health. Storage reachability decides
// liveness; the vision provider is probed only when ?deep=true since it
// costs an API call.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if err := h.storage.Ping(); err != nil {
		h.logger.Error().Err(err).Msg("Storage health check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	if r.URL.Query().Get("deep") == "true" {
		if err := h.vision.HealthCheck(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Vision service health check failed")
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetStatusHandler handles GET /api/status with corpus and analysis counts.
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	sections, _ := h.storage.CodeStorage().CountSections()
	articles, _ := h.storage.CodeStorage().CountArticles()
	chunks, _ := h.storage.CodeStorage().CountChunks()
	analyses, _ := h.storage.AnalysisStorage().CountAnalyses()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":  common.GetVersion(),
		"sections": sections,
		"articles": articles,
		"chunks":   chunks,
		"analyses": analyses,
	})
}
