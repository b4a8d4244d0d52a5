// Package handlers provides HTTP handlers for the cropper API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spherical/pdf-cropper/internal/crop"
	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/jobs"
	"github.com/spherical/pdf-cropper/internal/observability"
)

// JobManager is the part of jobs.Manager the handlers use.
type JobManager interface {
	Submit(req crop.Request) (jobs.Job, error)
	Get(id string) (jobs.Job, bool)
	List() []jobs.Job
}

// Defaults fill in request fields the client leaves out.
type Defaults struct {
	Suffix    string
	Margin    int
	PerPage   bool
	OutputDir string
	// RootDir, when set, bounds every input file and output directory.
	RootDir string
}

// JobsHandler handles crop job requests.
type JobsHandler struct {
	logger   *observability.Logger
	manager  JobManager
	defaults Defaults
	scope    pathScope
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(logger *observability.Logger, manager JobManager, defaults Defaults) *JobsHandler {
	return &JobsHandler{
		logger:   logger,
		manager:  manager,
		defaults: defaults,
		scope:    newPathScope(defaults.RootDir),
	}
}

// SubmitJobDTO represents the API request for a crop job.
type SubmitJobDTO struct {
	Files     []string `json:"files"`
	Suffix    *string  `json:"suffix,omitempty"`
	Margin    *int     `json:"margin,omitempty"`
	PerPage   *bool    `json:"per_page,omitempty"`
	OutputDir *string  `json:"output_dir,omitempty"`
}

// JobListDTO represents the API response for listing jobs.
type JobListDTO struct {
	Jobs  []jobs.Job `json:"jobs"`
	Count int        `json:"count"`
}

// Submit handles POST /jobs.
func (h *JobsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var dto SubmitJobDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(dto.Files) == 0 {
		h.writeError(w, http.StatusBadRequest, "files is required", "")
		return
	}

	req, err := h.scope.apply(h.request(dto))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "path outside root directory", err.Error())
		return
	}

	job, err := h.manager.Submit(req)
	switch {
	case err == nil:
	case errors.Is(err, jobs.ErrCapacity):
		h.writeError(w, http.StatusTooManyRequests, "too many jobs", err.Error())
		return
	case domain.IsType(err, domain.ErrorTypeValidation):
		h.writeError(w, http.StatusBadRequest, "invalid crop request", err.Error())
		return
	default:
		h.logger.Error().Err(err).Msg("job submission failed")
		h.writeError(w, http.StatusInternalServerError, "job submission failed", err.Error())
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Int("files", job.TotalFiles).
		Msg("crop job accepted")

	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	h.writeJSON(w, http.StatusAccepted, job)
}

// Get handles GET /jobs/{jobId}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if _, err := uuid.Parse(jobID); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid jobId", err.Error())
		return
	}

	job, ok := h.manager.Get(jobID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "job not found", "")
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// List handles GET /jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.manager.List()
	h.writeJSON(w, http.StatusOK, JobListDTO{Jobs: list, Count: len(list)})
}

func (h *JobsHandler) request(dto SubmitJobDTO) crop.Request {
	req := crop.NewRequest(dto.Files...)
	req.Suffix = h.defaults.Suffix
	req.Margin = h.defaults.Margin
	req.OutputDir = h.defaults.OutputDir
	perPage := h.defaults.PerPage

	if dto.Suffix != nil {
		req.Suffix = *dto.Suffix
	}
	if dto.Margin != nil {
		req.Margin = *dto.Margin
	}
	if dto.OutputDir != nil {
		req.OutputDir = *dto.OutputDir
	}
	if dto.PerPage != nil {
		perPage = *dto.PerPage
	}
	if perPage {
		req.Mode = domain.ExportPerPage
	}
	return req
}

func (h *JobsHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (h *JobsHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	h.writeJSON(w, status, resp)
}
