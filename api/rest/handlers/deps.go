package handlers

import (
	"context"

	"github.com/rishimj/sagemaker-clone/core/autoscaling"
	"github.com/rishimj/sagemaker-clone/core/launcher"
	"github.com/rishimj/sagemaker-clone/core/models"
	"github.com/rishimj/sagemaker-clone/core/store"
)

// The handler layer depends on interfaces so tests can substitute doubles
// without touching AWS.

// JobStore is the job record store contract used by handlers.
type JobStore interface {
	CreateJob(ctx context.Context, data store.JobData) (string, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, from, to models.JobStatus, extra map[string]any) error
	ListJobs(ctx context.Context, limit int32) ([]models.Job, error)
}

// EndpointStore is the endpoint record store contract used by handlers.
type EndpointStore interface {
	CreateEndpoint(ctx context.Context, data store.EndpointData) error
	GetEndpoint(ctx context.Context, name string) (*models.Endpoint, error)
	UpdateEndpointStatus(ctx context.Context, name string, from, to models.EndpointStatus, extra map[string]any) error
	ListEndpoints(ctx context.Context, limit int32) ([]models.Endpoint, error)
	DeleteEndpoint(ctx context.Context, name string) error
}

// Launcher starts and tears down compute units.
type Launcher interface {
	RunTrainingTask(ctx context.Context, task launcher.TrainingTask) (string, error)
	CreateInferenceService(ctx context.Context, endpointName string) (*launcher.ServiceInfo, error)
	DeleteInferenceService(ctx context.Context, endpointName string) error
}

// Autoscaler configures target-tracking autoscaling for inference services.
type Autoscaler interface {
	Enable(ctx context.Context, endpointName string, policy autoscaling.Policy) bool
	Disable(ctx context.Context, endpointName string) bool
}

// ObjectStore answers artifact-existence checks.
type ObjectStore interface {
	Exists(ctx context.Context, s3Path string) bool
}
