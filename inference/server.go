package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/training"
)

// ObjectStore fetches the model artifact.
type ObjectStore interface {
	Download(ctx context.Context, s3Path, localPath string) error
}

// Server serves predictions from one trained model. The ALB health check
// reports unhealthy until the artifact finishes loading.
type Server struct {
	endpointName string
	objects      ObjectStore
	log          zerolog.Logger

	mu    sync.RWMutex
	model *training.Model
}

// NewServer creates an inference server for the named endpoint.
func NewServer(endpointName string, objects ObjectStore, log zerolog.Logger) *Server {
	return &Server{
		endpointName: endpointName,
		objects:      objects,
		log:          log.With().Str("endpoint_name", endpointName).Logger(),
	}
}

// LoadModel downloads and decodes the model artifact.
func (s *Server) LoadModel(ctx context.Context, modelS3Path string) error {
	s.log.Info().Str("model_s3_path", modelS3Path).Msg("loading model")

	workDir, err := os.MkdirTemp("", "inference-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	localPath := filepath.Join(workDir, "model.pkl")
	if err := s.objects.Download(ctx, modelS3Path, localPath); err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}

	raw, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	var model training.Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return fmt.Errorf("failed to decode model artifact: %w", err)
	}

	s.mu.Lock()
	s.model = &model
	s.mu.Unlock()

	s.log.Info().
		Str("task_type", model.TaskType).
		Str("job_id", model.JobID).
		Msg("model loaded")
	return nil
}

func (s *Server) loaded() *training.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Routes builds the HTTP route tree.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.Health).Methods("GET")
	r.HandleFunc("/predict", s.Predict).Methods("POST")
	r.HandleFunc("/model-info", s.ModelInfo).Methods("GET")
	return r
}

// Health is the ALB health check.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	if s.loaded() == nil {
		respond(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  "Model not loaded",
		})
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"endpoint":     s.endpointName,
		"model_loaded": true,
	})
}

type predictRequest struct {
	Features json.RawMessage `json:"features"`
}

// Predict scores one or more feature rows. A single flat row is accepted and
// treated as a batch of one.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	model := s.loaded()
	if model == nil {
		respond(w, http.StatusServiceUnavailable, map[string]any{"error": "Model not loaded"})
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Features) == 0 {
		respond(w, http.StatusBadRequest, map[string]any{"error": "Missing required field: features"})
		return
	}

	rows, err := featureRows(req.Features)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	if n := len(model.FeatureColumns); n > 0 {
		for _, row := range rows {
			if len(row) != n {
				respond(w, http.StatusBadRequest, map[string]any{
					"error":             fmt.Sprintf("Expected %d features, got %d", n, len(row)),
					"expected_features": model.FeatureColumns,
				})
				return
			}
		}
	}

	predictions := make([]any, len(rows))
	for i := range rows {
		predictions[i] = model.Prediction
	}

	s.log.Info().Int("num_samples", len(rows)).Msg("prediction served")
	respond(w, http.StatusOK, map[string]any{
		"predictions": predictions,
		"task_type":   model.TaskType,
		"algorithm":   model.Algorithm,
		"num_samples": len(rows),
	})
}

// ModelInfo describes the loaded model.
func (s *Server) ModelInfo(w http.ResponseWriter, _ *http.Request) {
	model := s.loaded()
	if model == nil {
		respond(w, http.StatusServiceUnavailable, map[string]any{"error": "Model not loaded"})
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"job_id":          model.JobID,
		"task_type":       model.TaskType,
		"algorithm":       model.Algorithm,
		"feature_columns": model.FeatureColumns,
		"num_features":    len(model.FeatureColumns),
		"metrics":         model.Metrics,
	})
}

// featureRows normalizes the features payload: either a 2D array of numbers
// or a single flat row.
func featureRows(raw json.RawMessage) ([][]float64, error) {
	var batch [][]float64
	if err := json.Unmarshal(raw, &batch); err == nil {
		if len(batch) == 0 {
			return nil, fmt.Errorf("features must not be empty")
		}
		return batch, nil
	}

	var single []float64
	if err := json.Unmarshal(raw, &single); err == nil {
		if len(single) == 0 {
			return nil, fmt.Errorf("features must not be empty")
		}
		return [][]float64{single}, nil
	}

	return nil, fmt.Errorf("features must be an array of numbers or an array of rows")
}

func respond(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
