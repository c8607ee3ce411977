package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/training"
)

type fakeObjects struct {
	data map[string][]byte
}

func (f *fakeObjects) Download(_ context.Context, s3Path, localPath string) error {
	raw, ok := f.data[s3Path]
	if !ok {
		return os.ErrNotExist
	}
	return os.WriteFile(localPath, raw, 0o644)
}

func newLoadedServer(t *testing.T) *Server {
	t.Helper()
	model := training.Model{
		JobID:          "job-0a1b2c3d",
		TaskType:       "classification",
		Algorithm:      "baseline",
		FeatureColumns: []string{"amount", "merchant_risk"},
		TargetColumn:   "is_fraud",
		Prediction:     "no",
		Metrics:        map[string]float64{"accuracy": 0.75},
	}
	raw, _ := json.Marshal(model)

	srv := NewServer("fraud-api", &fakeObjects{data: map[string][]byte{
		"s3://bucket/models/job-0a1b2c3d/model.pkl": raw,
	}}, zerolog.Nop())
	if err := srv.LoadModel(context.Background(), "s3://bucket/models/job-0a1b2c3d/model.pkl"); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthBeforeAndAfterLoad(t *testing.T) {
	srv := NewServer("fraud-api", &fakeObjects{}, zerolog.Nop())

	rec := do(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d before load, want 503", rec.Code)
	}

	srv = newLoadedServer(t)
	rec = do(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d after load, want 200", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["endpoint"] != "fraud-api" || body["model_loaded"] != true {
		t.Errorf("health body = %v", body)
	}
}

func TestPredict(t *testing.T) {
	srv := newLoadedServer(t)

	rec := do(t, srv, http.MethodPost, "/predict", `{"features": [[120.5, 0.2], [890.0, 0.9]]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	preds := body["predictions"].([]any)
	if len(preds) != 2 || preds[0] != "no" {
		t.Errorf("predictions = %v", preds)
	}
	if body["num_samples"] != float64(2) {
		t.Errorf("num_samples = %v", body["num_samples"])
	}
	if body["task_type"] != "classification" {
		t.Errorf("task_type = %v", body["task_type"])
	}
}

func TestPredictSingleRow(t *testing.T) {
	srv := newLoadedServer(t)

	rec := do(t, srv, http.MethodPost, "/predict", `{"features": [120.5, 0.2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["num_samples"] != float64(1) {
		t.Errorf("num_samples = %v, want 1", body["num_samples"])
	}
}

func TestPredictValidation(t *testing.T) {
	srv := newLoadedServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing features", `{}`},
		{"not json", `{{`},
		{"wrong feature count", `{"features": [[1.0]]}`},
		{"non-numeric features", `{"features": "abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/predict", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPredictModelNotLoaded(t *testing.T) {
	srv := NewServer("fraud-api", &fakeObjects{}, zerolog.Nop())
	rec := do(t, srv, http.MethodPost, "/predict", `{"features": [[1.0, 2.0]]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestModelInfo(t *testing.T) {
	srv := newLoadedServer(t)

	rec := do(t, srv, http.MethodGet, "/model-info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["job_id"] != "job-0a1b2c3d" {
		t.Errorf("job_id = %v", body["job_id"])
	}
	if body["num_features"] != float64(2) {
		t.Errorf("num_features = %v", body["num_features"])
	}
}

func TestLoadModelBadArtifact(t *testing.T) {
	srv := NewServer("fraud-api", &fakeObjects{data: map[string][]byte{
		"s3://b/model.pkl": []byte("not json"),
	}}, zerolog.Nop())

	if err := srv.LoadModel(context.Background(), "s3://b/model.pkl"); err == nil {
		t.Fatal("LoadModel succeeded on malformed artifact")
	}
}
