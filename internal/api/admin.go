package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/mediamigrate"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/storygen"
)

// generateResponse acknowledges a queued job. StoryID carries the job ID
// until the story exists.
type generateResponse struct {
	Status  string `json:"status"`
	StoryID string `json:"story_id"`
	Message string `json:"message"`
}

func (s *Server) generateStory(w http.ResponseWriter, r *http.Request) {
	if s.svc.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "story generation is not configured")
		return
	}
	var req storygen.Request
	if err := readJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}
	job, err := s.svc.Jobs.Submit(r.Context(), req)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, generateResponse{
		Status:  job.Status,
		StoryID: job.ID,
		Message: "Story generation started. Check /generate/status/" + job.ID + " for progress.",
	})
}

func (s *Server) generationStatus(w http.ResponseWriter, r *http.Request) {
	if s.svc.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "story generation is not configured")
		return
	}
	job, err := s.svc.Jobs.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type jobsResponse struct {
	Jobs []store.GenerationJob `json:"jobs"`
}

// listJobs returns generation jobs newest first, optionally filtered by
// status.
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	if s.svc.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "story generation is not configured")
		return
	}
	limit, err := intQuery(r, "limit", 0, 0, 500)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	jobs, err := s.svc.Jobs.List(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []store.GenerationJob{}
	}
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: jobs})
}

type cancelResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Job     *store.GenerationJob `json:"job"`
}

// cancelJob fails a pending job at once. A running job is stopped by its
// worker, so the reply is 202 until the status turns failed.
func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	if s.svc.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "story generation is not configured")
		return
	}
	job, err := s.svc.Jobs.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if job.Status == storygen.StatusFailed {
		writeJSON(w, http.StatusOK, cancelResponse{Status: "cancelled", Message: "Job cancelled.", Job: job})
		return
	}
	writeJSON(w, http.StatusAccepted, cancelResponse{Status: "cancelling", Message: "Job cancellation requested.", Job: job})
}

type migrateRequest struct {
	Limit  *int   `json:"limit" validate:"omitempty,min=0"`
	DryRun bool   `json:"dry_run"`
	After  string `json:"after"`
}

// migrateMedia runs one migration batch synchronously and returns the
// report. Without a limit the configured default applies.
func (s *Server) migrateMedia(w http.ResponseWriter, r *http.Request) {
	if s.svc.Migrator == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}
	var req migrateRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			handleErr(w, r, err)
			return
		}
	}
	opts := mediamigrate.Options{Limit: s.migrate.Limit, DryRun: req.DryRun, After: req.After}
	if req.Limit != nil {
		opts.Limit = *req.Limit
	}

	report, err := s.svc.Migrator.Run(r.Context(), opts)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int("migrated", report.Migrated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Bool("dry_run", report.DryRun).
		Msg("media migration batch finished")
	writeJSON(w, http.StatusOK, report)
}
