package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.app.AnalysisHandler.AnalyzeHandler)           // POST - base64 JSON body
	mux.HandleFunc("/api/analyze-file", s.app.AnalysisHandler.AnalyzeFileHandler)  // POST - multipart upload
	mux.HandleFunc("/api/analyses", s.app.AnalysisHandler.ListAnalysesHandler)     // GET - list analyses
	mux.HandleFunc("/api/analysis/", s.app.AnalysisHandler.GetAnalysisHandler)     // GET /{id}

	// API routes - Corpus ingestion
	mux.HandleFunc("/api/ingest", s.app.IngestHandler.IngestCorpusHandler)      // POST - PDF upload or raw text
	mux.HandleFunc("/api/ingest/backfill", s.app.IngestHandler.BackfillHandler) // POST - embed pending chunks
	mux.HandleFunc("/api/ingest/stats", s.app.IngestHandler.StatsHandler)       // GET - corpus counts

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)

	return mux
}
