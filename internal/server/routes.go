package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Research jobs
	mux.HandleFunc("/api/research", s.handleResearchCollection)
	mux.HandleFunc("/api/research/", s.handleResearchRoutes) // Handles /api/research/{id} and subpaths

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleResearchCollection routes /api/research by method
func (s *Server) handleResearchCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "POST":
		s.app.ResearchHandler.StartResearchHandler(w, r)
	case "GET":
		s.app.ResearchHandler.ListResearchHandler(w, r)
	case "DELETE":
		s.app.ResearchHandler.DeleteAllResearchHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleResearchRoutes routes /api/research/{id} and subpaths
func (s *Server) handleResearchRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// GET /api/research/{id}/status
	if strings.HasSuffix(path, "/status") {
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.ResearchHandler.StatusHandler(w, r)
		return
	}

	// POST /api/research/{id}/cancel
	if strings.HasSuffix(path, "/cancel") {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.ResearchHandler.CancelHandler(w, r)
		return
	}

	// GET /api/research/{id}/export
	if strings.HasSuffix(path, "/export") {
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.ResearchHandler.ExportHandler(w, r)
		return
	}

	// /api/research/{id}
	switch r.Method {
	case "GET":
		s.app.ResearchHandler.GetResearchHandler(w, r)
	case "DELETE":
		s.app.ResearchHandler.DeleteResearchHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
