package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/core/launcher"
	"github.com/rishimj/sagemaker-clone/core/models"
	"github.com/rishimj/sagemaker-clone/core/store"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobs     JobStore
	launcher Launcher
	s3Bucket string
	log      zerolog.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobStore, l Launcher, s3Bucket string, log zerolog.Logger) *JobHandler {
	return &JobHandler{
		jobs:     jobs,
		launcher: l,
		s3Bucket: s3Bucket,
		log:      log.With().Str("service", "jobs").Logger(),
	}
}

// SubmitJobRequest represents the request to submit a job
type SubmitJobRequest struct {
	JobName         string         `json:"job_name"`
	Image           string         `json:"image"`
	InputData       string         `json:"input_data"`
	Hyperparameters map[string]any `json:"hyperparameters"`
}

// SubmitJob handles POST /jobs. The job is accepted once the record is
// persisted: a failed compute launch leaves the record pending and is only
// visible in logs, not in the response.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn().Err(err).Msg("invalid JSON in request body")
		writeError(w, http.StatusBadRequest, jobMethods, "Invalid JSON in request body")
		return
	}

	if field, ok := firstMissing(map[string]string{
		"job_name":   req.JobName,
		"image":      req.Image,
		"input_data": req.InputData,
	}, "job_name", "image", "input_data"); !ok {
		h.log.Warn().Str("field", field).Msg("missing required field")
		writeError(w, http.StatusBadRequest, jobMethods, "Missing required field: "+field)
		return
	}

	s3Output := fmt.Sprintf("s3://%s/models/%s", h.s3Bucket, req.JobName)

	jobID, err := h.jobs.CreateJob(ctx, store.JobData{
		JobName:         req.JobName,
		Image:           req.Image,
		S3Input:         req.InputData,
		S3Output:        s3Output,
		Hyperparameters: req.Hyperparameters,
	})
	if err != nil {
		h.log.Error().Err(err).Str("job_name", req.JobName).Msg("failed to create job record")
		writeJSON(w, http.StatusInternalServerError, jobMethods, errorResponse{
			Error:   "Database error",
			Message: err.Error(),
		})
		return
	}

	log := h.log.With().Str("job_id", jobID).Logger()

	taskARN, err := h.launcher.RunTrainingTask(ctx, launcher.TrainingTask{
		JobID:           jobID,
		Image:           req.Image,
		S3Input:         req.InputData,
		S3Output:        s3Output,
		Hyperparameters: req.Hyperparameters,
	})
	if err != nil {
		// The job stays pending; submission already succeeded.
		log.Warn().Err(err).Msg("training task failed to start")
	} else {
		if err := h.jobs.UpdateJobStatus(ctx, jobID, models.JobStatusPending, models.JobStatusRunning, map[string]any{
			"task_arn": taskARN,
		}); err != nil {
			log.Error().Err(err).Msg("failed to update job status to running")
		}
	}

	log.Info().Msg("job submission completed")
	writeJSON(w, http.StatusOK, jobMethods, map[string]string{"job_id": jobID})
}

// GetJobStatus handles GET /jobs/{job_id}
func (h *JobHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID := mux.Vars(r)["job_id"]
	if jobID == "" {
		writeError(w, http.StatusBadRequest, jobMethods, "Missing job_id parameter")
		return
	}

	job, err := h.jobs.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("failed to retrieve job")
		writeJSON(w, http.StatusInternalServerError, jobMethods, errorResponse{
			Error:   "Database error",
			Message: err.Error(),
		})
		return
	}
	if job == nil {
		h.log.Warn().Str("job_id", jobID).Msg("job not found")
		writeError(w, http.StatusNotFound, jobMethods, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, jobMethods, job)
}

// ListJobs handles GET /jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListJobs(r.Context(), 100)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list jobs")
		writeError(w, http.StatusInternalServerError, jobMethods, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, jobMethods, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// firstMissing returns the first field (in the given order) whose value is
// empty, and whether all fields were present.
func firstMissing(fields map[string]string, order ...string) (string, bool) {
	for _, name := range order {
		if fields[name] == "" {
			return name, false
		}
	}
	return "", true
}
