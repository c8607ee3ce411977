package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/core/autoscaling"
	"github.com/rishimj/sagemaker-clone/core/models"
	"github.com/rishimj/sagemaker-clone/core/store"
)

// EndpointConfig carries the environment-derived settings the endpoint
// handlers need.
type EndpointConfig struct {
	S3Bucket       string
	ALBDNSName     string
	TargetGroupARN string
	TaskDefinition string
}

// EndpointHandler handles endpoint-related HTTP requests
type EndpointHandler struct {
	endpoints  EndpointStore
	launcher   Launcher
	autoscaler Autoscaler
	objects    ObjectStore
	cfg        EndpointConfig
	log        zerolog.Logger
}

// NewEndpointHandler creates a new endpoint handler
func NewEndpointHandler(endpoints EndpointStore, l Launcher, a Autoscaler, objects ObjectStore, cfg EndpointConfig, log zerolog.Logger) *EndpointHandler {
	return &EndpointHandler{
		endpoints:  endpoints,
		launcher:   l,
		autoscaler: a,
		objects:    objects,
		cfg:        cfg,
		log:        log.With().Str("service", "endpoints").Logger(),
	}
}

// CreateEndpointRequest represents the request to create an endpoint
type CreateEndpointRequest struct {
	EndpointName string `json:"endpoint_name"`
	JobID        string `json:"job_id"`
}

// ModelPath derives the artifact location for a job's trained model.
func ModelPath(bucket, jobID string) string {
	return fmt.Sprintf("s3://%s/models/%s/model.pkl", bucket, jobID)
}

// CreateEndpoint handles POST /endpoints
func (h *EndpointHandler) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn().Err(err).Msg("invalid JSON in request body")
		writeError(w, http.StatusBadRequest, endpointMethods, "Invalid JSON in request body")
		return
	}

	if field, ok := firstMissing(map[string]string{
		"endpoint_name": req.EndpointName,
		"job_id":        req.JobID,
	}, "endpoint_name", "job_id"); !ok {
		h.log.Warn().Str("field", field).Msg("missing required field")
		writeError(w, http.StatusBadRequest, endpointMethods, "Missing required field: "+field)
		return
	}

	log := h.log.With().Str("endpoint_name", req.EndpointName).Logger()

	existing, err := h.endpoints.GetEndpoint(ctx, req.EndpointName)
	if err != nil {
		log.Error().Err(err).Msg("failed to check for existing endpoint")
		writeJSON(w, http.StatusInternalServerError, endpointMethods, errorResponse{
			Error:   "Database error",
			Message: err.Error(),
		})
		return
	}
	if existing != nil {
		log.Warn().Msg("endpoint already exists")
		writeError(w, http.StatusConflict, endpointMethods, fmt.Sprintf("Endpoint %s already exists", req.EndpointName))
		return
	}

	modelS3Path := ModelPath(h.cfg.S3Bucket, req.JobID)
	if !h.objects.Exists(ctx, modelS3Path) {
		log.Warn().Str("model_s3_path", modelS3Path).Msg("model artifact not found")
		writeError(w, http.StatusNotFound, endpointMethods, "Model not found at "+modelS3Path)
		return
	}

	err = h.endpoints.CreateEndpoint(ctx, store.EndpointData{
		EndpointName:   req.EndpointName,
		JobID:          req.JobID,
		ModelS3Path:    modelS3Path,
		TargetGroupARN: h.cfg.TargetGroupARN,
		TaskDefinition: h.cfg.TaskDefinition,
	})
	if err != nil {
		// The pre-check above can lose a race; the conditional write is
		// what actually closes the double-create window.
		if errors.Is(err, store.ErrEndpointExists) {
			log.Warn().Msg("endpoint created concurrently")
			writeError(w, http.StatusConflict, endpointMethods, fmt.Sprintf("Endpoint %s already exists", req.EndpointName))
			return
		}
		log.Error().Err(err).Msg("failed to create endpoint record")
		writeJSON(w, http.StatusInternalServerError, endpointMethods, errorResponse{
			Error:   "Database error",
			Message: err.Error(),
		})
		return
	}

	service, err := h.launcher.CreateInferenceService(ctx, req.EndpointName)
	if err != nil {
		log.Error().Err(err).Msg("failed to create inference service")
		if updateErr := h.endpoints.UpdateEndpointStatus(ctx, req.EndpointName,
			models.EndpointStatusCreating, models.EndpointStatusFailed, nil); updateErr != nil {
			log.Error().Err(updateErr).Msg("failed to mark endpoint failed")
		}
		writeError(w, http.StatusInternalServerError, endpointMethods, "Failed to create inference service")
		return
	}

	// Autoscaling failure is non-fatal: the endpoint serves without elasticity.
	autoscalingEnabled := h.autoscaler.Enable(ctx, req.EndpointName, autoscaling.DefaultPolicy())
	if !autoscalingEnabled {
		log.Warn().Msg("autoscaling setup failed, endpoint will run without autoscaling")
	}

	endpointURL := fmt.Sprintf("http://%s/%s", h.cfg.ALBDNSName, req.EndpointName)

	if err := h.endpoints.UpdateEndpointStatus(ctx, req.EndpointName,
		models.EndpointStatusCreating, models.EndpointStatusActive, map[string]any{
			"service_arn":         service.ServiceARN,
			"endpoint_url":        endpointURL,
			"autoscaling_enabled": autoscalingEnabled,
		}); err != nil {
		log.Error().Err(err).Msg("failed to update endpoint to active")
	}

	log.Info().
		Str("endpoint_url", endpointURL).
		Bool("autoscaling_enabled", autoscalingEnabled).
		Msg("endpoint created")

	writeJSON(w, http.StatusOK, endpointMethods, map[string]any{
		"endpoint_name": req.EndpointName,
		"endpoint_url":  endpointURL,
		"status":        string(models.EndpointStatusActive),
		"service_arn":   service.ServiceARN,
	})
}

// DeleteEndpoint handles DELETE /endpoints/{endpoint_name}. Compute teardown
// failures are logged and skipped over: an orphaned record is preferred to an
// orphaned service, which keeps costing money.
func (h *EndpointHandler) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := mux.Vars(r)["endpoint_name"]
	if name == "" {
		writeError(w, http.StatusBadRequest, endpointMethods, "Missing endpoint_name in path")
		return
	}

	log := h.log.With().Str("endpoint_name", name).Logger()

	endpoint, err := h.endpoints.GetEndpoint(ctx, name)
	if err != nil {
		log.Error().Err(err).Msg("failed to retrieve endpoint")
		writeJSON(w, http.StatusInternalServerError, endpointMethods, errorResponse{
			Error:   "Database error",
			Message: err.Error(),
		})
		return
	}
	if endpoint == nil {
		log.Warn().Msg("endpoint not found")
		writeError(w, http.StatusNotFound, endpointMethods, fmt.Sprintf("Endpoint %s not found", name))
		return
	}

	if endpoint.ServiceARN != "" {
		if !h.autoscaler.Disable(ctx, name) {
			log.Warn().Msg("autoscaling teardown incomplete, continuing")
		}
		if err := h.launcher.DeleteInferenceService(ctx, name); err != nil {
			log.Warn().Err(err).Msg("failed to delete inference service, continuing with record deletion")
		}
	} else {
		log.Debug().Msg("no service handle recorded, skipping compute teardown")
	}

	if err := h.endpoints.DeleteEndpoint(ctx, name); err != nil {
		log.Error().Err(err).Msg("failed to delete endpoint record")
		writeJSON(w, http.StatusInternalServerError, endpointMethods, errorResponse{
			Error:   "Database error",
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, endpointMethods, map[string]string{
		"message":       fmt.Sprintf("Endpoint %s deleted successfully", name),
		"endpoint_name": name,
	})
}

// GetEndpointStatus handles GET /endpoints/{endpoint_name} and GET /endpoints
func (h *EndpointHandler) GetEndpointStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := mux.Vars(r)["endpoint_name"]
	if name == "" {
		endpoints, err := h.endpoints.ListEndpoints(ctx, 100)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to list endpoints")
			writeError(w, http.StatusInternalServerError, endpointMethods, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, endpointMethods, map[string]any{
			"endpoints": endpoints,
			"count":     len(endpoints),
		})
		return
	}

	endpoint, err := h.endpoints.GetEndpoint(ctx, name)
	if err != nil {
		h.log.Error().Err(err).Str("endpoint_name", name).Msg("failed to retrieve endpoint")
		writeJSON(w, http.StatusInternalServerError, endpointMethods, errorResponse{
			Error:   "Database error",
			Message: err.Error(),
		})
		return
	}
	if endpoint == nil {
		h.log.Warn().Str("endpoint_name", name).Msg("endpoint not found")
		writeError(w, http.StatusNotFound, endpointMethods, fmt.Sprintf("Endpoint %s not found", name))
		return
	}

	writeJSON(w, http.StatusOK, endpointMethods, endpoint)
}
