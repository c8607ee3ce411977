package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/core/models"
)

// JobStore handles DynamoDB operations for job tracking
type JobStore struct {
	client DynamoAPI
	table  string
	log    zerolog.Logger
}

// NewJobStore creates a new job store backed by the given table.
func NewJobStore(client DynamoAPI, table string, log zerolog.Logger) *JobStore {
	return &JobStore{
		client: client,
		table:  table,
		log:    log.With().Str("table", table).Logger(),
	}
}

// JobData holds the caller-supplied parameters of a new job.
type JobData struct {
	JobName         string
	Image           string
	S3Input         string
	S3Output        string
	Hyperparameters map[string]any
}

// NewJobID generates a job identifier of the form job-<8 hex chars>.
func NewJobID() string {
	u := uuid.New()
	return "job-" + hex.EncodeToString(u[:])[:8]
}

// CreateJob inserts a new job record with status pending and returns its ID.
func (s *JobStore) CreateJob(ctx context.Context, data JobData) (string, error) {
	jobID := NewJobID()

	item := map[string]any{
		"job_id":     jobID,
		"status":     string(models.JobStatusPending),
		"created_at": time.Now().Unix(),
		"job_name":   data.JobName,
		"image":      data.Image,
		"s3_input":   data.S3Input,
		"s3_output":  data.S3Output,
	}
	if data.Hyperparameters != nil {
		item["hyperparameters"] = data.Hyperparameters
	}

	avs, err := toAttrMap(item)
	if err != nil {
		return "", fmt.Errorf("marshal job %s: %w", jobID, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      avs,
	}); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("failed to create job")
		return "", fmt.Errorf("create job %s: %w", jobID, err)
	}

	s.log.Info().Str("job_id", jobID).Str("job_name", data.JobName).Msg("job created")
	return jobID, nil
}

// GetJob retrieves a job by ID. A missing job is (nil, nil), not an error.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"job_id": &types.AttributeValueMemberS{Value: jobID},
		},
	})
	if err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("failed to get job")
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	item, err := fromAttrMap(out.Item)
	if err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", jobID, err)
	}
	job := jobFromItem(item)
	return &job, nil
}

// UpdateJobStatus moves a job from one status to another, setting any extra
// fields in the same write. The transition is validated locally and the write
// is conditional on the stored status still matching from.
func (s *JobStore) UpdateJobStatus(ctx context.Context, jobID string, from, to models.JobStatus, extra map[string]any) error {
	if !models.ValidJobTransition(from, to) {
		return fmt.Errorf("job %s: %s -> %s: %w", jobID, from, to, ErrInvalidTransition)
	}

	if err := updateStatus(ctx, s.client, s.table, "job_id", jobID, string(from), string(to), extra); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Str("status", string(to)).Msg("failed to update job status")
		return err
	}

	s.log.Info().Str("job_id", jobID).Str("status", string(to)).Msg("job status updated")
	return nil
}

// ListJobs returns up to limit jobs in no particular order.
func (s *JobStore) ListJobs(ctx context.Context, limit int32) ([]models.Job, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(limit),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list jobs")
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]models.Job, 0, len(out.Items))
	for _, raw := range out.Items {
		item, err := fromAttrMap(raw)
		if err != nil {
			return nil, fmt.Errorf("unmarshal job item: %w", err)
		}
		jobs = append(jobs, jobFromItem(item))
	}
	return jobs, nil
}

func jobFromItem(item map[string]any) models.Job {
	return models.Job{
		JobID:           stringAttr(item, "job_id"),
		JobName:         stringAttr(item, "job_name"),
		Image:           stringAttr(item, "image"),
		S3Input:         stringAttr(item, "s3_input"),
		S3Output:        stringAttr(item, "s3_output"),
		Hyperparameters: mapAttr(item, "hyperparameters"),
		Status:          models.JobStatus(stringAttr(item, "status")),
		TaskARN:         stringAttr(item, "task_arn"),
		CreatedAt:       int64Attr(item, "created_at"),
		Metrics:         mapAttr(item, "metrics"),
		Error:           stringAttr(item, "error"),
	}
}
