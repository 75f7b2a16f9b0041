package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
)

// ResearchHandler serves the research job API: start, poll, cancel,
// fetch, list, delete, and export.
type ResearchHandler struct {
	scheduler interfaces.SchedulerService
	store     interfaces.ResearchStore
	exporter  interfaces.ExportService
	validate  *validator.Validate
	logger    arbor.ILogger
}

func NewResearchHandler(
	scheduler interfaces.SchedulerService,
	store interfaces.ResearchStore,
	exporter interfaces.ExportService,
	logger arbor.ILogger,
) *ResearchHandler {
	return &ResearchHandler{
		scheduler: scheduler,
		store:     store,
		exporter:  exporter,
		validate:  validator.New(),
		logger:    logger,
	}
}

type startResearchRequest struct {
	Topic string `json:"topic" validate:"required,min=3"`
}

// researchIDFromPath extracts the research ID from paths of the form
// /api/research/{id} or /api/research/{id}/{action}.
func researchIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// StartResearchHandler starts a new research job
// POST /api/research
func (h *ResearchHandler) StartResearchHandler(w http.ResponseWriter, r *http.Request) {
	var req startResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Topic must be at least 3 characters long")
		return
	}

	researchID, err := h.scheduler.Start(r.Context(), req.Topic)
	if err != nil {
		if errors.Is(err, interfaces.ErrInvalidTopic) {
			WriteError(w, http.StatusBadRequest, "Topic must be at least 3 characters long")
			return
		}
		h.logger.Error().Err(err).Str("topic", req.Topic).Msg("Failed to start research")
		WriteError(w, http.StatusInternalServerError, "Failed to start research")
		return
	}

	h.logger.Info().Str("research_id", researchID).Str("topic", req.Topic).Msg("Research started")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"research_id": researchID,
		"status":      "started",
		"message":     fmt.Sprintf("Research started. Poll /api/research/%s/status for progress.", researchID),
	})
}

// StatusHandler returns the current status and progress of a research job
// GET /api/research/{id}/status
func (h *ResearchHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	researchID := researchIDFromPath(r.URL.Path)
	if researchID == "" {
		WriteError(w, http.StatusBadRequest, "Research ID is required")
		return
	}

	snapshot, err := h.scheduler.Status(researchID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Research job not found")
			return
		}
		h.logger.Error().Err(err).Str("research_id", researchID).Msg("Failed to get job status")
		WriteError(w, http.StatusInternalServerError, "Failed to get research status")
		return
	}

	response := map[string]interface{}{
		"research_id": snapshot.Job.ID,
		"topic":       snapshot.Job.Topic,
		"status":      snapshot.Job.Status,
		"progress":    snapshot.Progress,
		"created_at":  snapshot.Job.CreatedAt,
	}
	if snapshot.Job.CompletedAt != nil {
		response["completed_at"] = snapshot.Job.CompletedAt
	}
	if snapshot.Job.Error != "" {
		response["error"] = snapshot.Job.Error
	}
	if snapshot.Run != nil {
		response["run"] = snapshot.Run
	}

	WriteJSON(w, http.StatusOK, response)
}

// CancelHandler requests cancellation of a running research job
// POST /api/research/{id}/cancel
func (h *ResearchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	researchID := researchIDFromPath(r.URL.Path)
	if researchID == "" {
		WriteError(w, http.StatusBadRequest, "Research ID is required")
		return
	}

	result, err := h.scheduler.Cancel(researchID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Research job not found")
			return
		}
		h.logger.Error().Err(err).Str("research_id", researchID).Msg("Failed to cancel research")
		WriteError(w, http.StatusInternalServerError, "Failed to cancel research")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"research_id": researchID,
		"cancelled":   result.Cancelled,
		"status":      result.Status,
	})
}

// GetResearchHandler returns a persisted research run by ID
// GET /api/research/{id}
func (h *ResearchHandler) GetResearchHandler(w http.ResponseWriter, r *http.Request) {
	researchID := researchIDFromPath(r.URL.Path)
	if researchID == "" {
		WriteError(w, http.StatusBadRequest, "Research ID is required")
		return
	}

	run, err := h.store.GetRun(r.Context(), researchID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunNotFound) {
			WriteError(w, http.StatusNotFound, "Research not found")
			return
		}
		h.logger.Error().Err(err).Str("research_id", researchID).Msg("Failed to get research run")
		WriteError(w, http.StatusInternalServerError, "Failed to get research")
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// ListResearchHandler returns all persisted research runs, newest first
// GET /api/research
func (h *ResearchHandler) ListResearchHandler(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list research runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list research")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(runs),
		"results": runs,
	})
}

// DeleteResearchHandler deletes a research job and its persisted run
// DELETE /api/research/{id}
func (h *ResearchHandler) DeleteResearchHandler(w http.ResponseWriter, r *http.Request) {
	researchID := researchIDFromPath(r.URL.Path)
	if researchID == "" {
		WriteError(w, http.StatusBadRequest, "Research ID is required")
		return
	}

	if err := h.scheduler.Delete(researchID); err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Research not found")
			return
		}
		h.logger.Error().Err(err).Str("research_id", researchID).Msg("Failed to delete research")
		WriteError(w, http.StatusInternalServerError, "Failed to delete research")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":     true,
		"research_id": researchID,
	})
}

// DeleteAllResearchHandler deletes all research jobs and runs
// DELETE /api/research
func (h *ResearchHandler) DeleteAllResearchHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.scheduler.DeleteAll()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to delete all research")
		WriteError(w, http.StatusInternalServerError, "Failed to delete research")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": count,
	})
}

// ExportHandler renders a research run as a downloadable document
// GET /api/research/{id}/export?format=pdf|markdown
func (h *ResearchHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	researchID := researchIDFromPath(r.URL.Path)
	if researchID == "" {
		WriteError(w, http.StatusBadRequest, "Research ID is required")
		return
	}

	run, err := h.store.GetRun(r.Context(), researchID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunNotFound) {
			WriteError(w, http.StatusNotFound, "Research not found")
			return
		}
		h.logger.Error().Err(err).Str("research_id", researchID).Msg("Failed to load research run for export")
		WriteError(w, http.StatusInternalServerError, "Failed to export research")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	switch format {
	case "pdf":
		data, err := h.exporter.RenderPDF(run)
		if err != nil {
			h.logger.Error().Err(err).Str("research_id", researchID).Msg("PDF export failed")
			WriteError(w, http.StatusInternalServerError, "Failed to render PDF")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=research_%s.pdf", researchID))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case "markdown":
		report := h.exporter.RenderMarkdown(run)
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=research_%s.md", researchID))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(report))
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported export format '%s'", format))
	}
}
