package handlers

import (
	"context"
	"fmt"

	"github.com/rishimj/sagemaker-clone/core/autoscaling"
	"github.com/rishimj/sagemaker-clone/core/launcher"
	"github.com/rishimj/sagemaker-clone/core/models"
	"github.com/rishimj/sagemaker-clone/core/store"
)

type statusUpdate struct {
	key   string
	from  string
	to    string
	extra map[string]any
}

type fakeJobStore struct {
	jobs    map[string]*models.Job
	updates []statusUpdate
	nextID  string

	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]*models.Job{}, nextID: "job-0a1b2c3d"}
}

func (f *fakeJobStore) CreateJob(_ context.Context, data store.JobData) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.jobs[f.nextID] = &models.Job{
		JobID:           f.nextID,
		JobName:         data.JobName,
		Image:           data.Image,
		S3Input:         data.S3Input,
		S3Output:        data.S3Output,
		Hyperparameters: data.Hyperparameters,
		Status:          models.JobStatusPending,
	}
	return f.nextID, nil
}

func (f *fakeJobStore) GetJob(_ context.Context, jobID string) (*models.Job, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.jobs[jobID], nil
}

func (f *fakeJobStore) UpdateJobStatus(_ context.Context, jobID string, from, to models.JobStatus, extra map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, statusUpdate{key: jobID, from: string(from), to: string(to), extra: extra})
	if job, ok := f.jobs[jobID]; ok {
		job.Status = to
	}
	return nil
}

func (f *fakeJobStore) ListJobs(_ context.Context, _ int32) ([]models.Job, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	return out, nil
}

type fakeEndpointStore struct {
	endpoints map[string]*models.Endpoint
	updates   []statusUpdate
	deleted   []string

	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error
}

func newFakeEndpointStore() *fakeEndpointStore {
	return &fakeEndpointStore{endpoints: map[string]*models.Endpoint{}}
}

func (f *fakeEndpointStore) CreateEndpoint(_ context.Context, data store.EndpointData) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.endpoints[data.EndpointName]; ok {
		return store.ErrEndpointExists
	}
	f.endpoints[data.EndpointName] = &models.Endpoint{
		EndpointName: data.EndpointName,
		JobID:        data.JobID,
		ModelS3Path:  data.ModelS3Path,
		Status:       models.EndpointStatusCreating,
	}
	return nil
}

func (f *fakeEndpointStore) GetEndpoint(_ context.Context, name string) (*models.Endpoint, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.endpoints[name], nil
}

func (f *fakeEndpointStore) UpdateEndpointStatus(_ context.Context, name string, from, to models.EndpointStatus, extra map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, statusUpdate{key: name, from: string(from), to: string(to), extra: extra})
	if ep, ok := f.endpoints[name]; ok {
		ep.Status = to
	}
	return nil
}

func (f *fakeEndpointStore) ListEndpoints(_ context.Context, _ int32) ([]models.Endpoint, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Endpoint, 0, len(f.endpoints))
	for _, e := range f.endpoints {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEndpointStore) DeleteEndpoint(_ context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	delete(f.endpoints, name)
	return nil
}

type fakeLauncher struct {
	runCalls    []launcher.TrainingTask
	createCalls []string
	deleteCalls []string

	runErr    error
	createErr error
	deleteErr error
}

func (f *fakeLauncher) RunTrainingTask(_ context.Context, task launcher.TrainingTask) (string, error) {
	f.runCalls = append(f.runCalls, task)
	if f.runErr != nil {
		return "", f.runErr
	}
	return "arn:aws:ecs:us-east-1:123456789012:task/training-cluster/abc123", nil
}

func (f *fakeLauncher) CreateInferenceService(_ context.Context, endpointName string) (*launcher.ServiceInfo, error) {
	f.createCalls = append(f.createCalls, endpointName)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &launcher.ServiceInfo{
		ServiceName: "inference-" + endpointName,
		ServiceARN:  fmt.Sprintf("arn:aws:ecs:us-east-1:123456789012:service/training-cluster/inference-%s", endpointName),
	}, nil
}

func (f *fakeLauncher) DeleteInferenceService(_ context.Context, endpointName string) error {
	f.deleteCalls = append(f.deleteCalls, endpointName)
	return f.deleteErr
}

type fakeAutoscaler struct {
	enableResult  bool
	disableResult bool
	enableCalls   []string
	disableCalls  []string
}

func (f *fakeAutoscaler) Enable(_ context.Context, endpointName string, _ autoscaling.Policy) bool {
	f.enableCalls = append(f.enableCalls, endpointName)
	return f.enableResult
}

func (f *fakeAutoscaler) Disable(_ context.Context, endpointName string) bool {
	f.disableCalls = append(f.disableCalls, endpointName)
	return f.disableResult
}

type fakeObjectStore struct {
	existing map[string]bool
}

func (f *fakeObjectStore) Exists(_ context.Context, s3Path string) bool {
	return f.existing[s3Path]
}
