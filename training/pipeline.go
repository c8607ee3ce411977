package training

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/core/models"
)

// ObjectStore is the artifact transfer contract the pipeline needs.
type ObjectStore interface {
	Download(ctx context.Context, s3Path, localPath string) error
	Upload(ctx context.Context, localPath, s3Path string) error
}

// JobReporter posts status transitions back to the job record store.
type JobReporter interface {
	UpdateJobStatus(ctx context.Context, jobID string, from, to models.JobStatus, extra map[string]any) error
}

// Config carries the per-job parameters the launcher passes through the
// container environment.
type Config struct {
	JobID           string
	S3Input         string
	S3Output        string
	Hyperparameters map[string]any
}

// Pipeline runs one training job start to finish: fetch the dataset, fit a
// model, publish the artifact, and report the terminal status.
type Pipeline struct {
	objects ObjectStore
	trainer Trainer
	jobs    JobReporter
	log     zerolog.Logger
}

// NewPipeline creates a training pipeline
func NewPipeline(objects ObjectStore, trainer Trainer, jobs JobReporter, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		objects: objects,
		trainer: trainer,
		jobs:    jobs,
		log:     log.With().Str("service", "training").Logger(),
	}
}

// ModelKey appends the well-known artifact name to a job's output prefix.
func ModelKey(s3Output string) string {
	return strings.TrimSuffix(s3Output, "/") + "/model.pkl"
}

// Run executes the pipeline and reports running→completed with metrics, or
// running→failed with the error. The returned error mirrors what was
// reported so the container exit code matches the record.
func (p *Pipeline) Run(ctx context.Context, cfg Config) error {
	log := p.log.With().Str("job_id", cfg.JobID).Logger()

	if err := p.run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("training failed")
		if reportErr := p.jobs.UpdateJobStatus(ctx, cfg.JobID,
			models.JobStatusRunning, models.JobStatusFailed, map[string]any{
				"error": err.Error(),
			}); reportErr != nil {
			log.Error().Err(reportErr).Msg("failed to report job failure")
		}
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, cfg Config, log zerolog.Logger) error {
	if cfg.S3Input == "" {
		return fmt.Errorf("S3_INPUT is required but not provided")
	}
	if cfg.S3Output == "" {
		return fmt.Errorf("S3_OUTPUT is required but not provided")
	}

	workDir, err := os.MkdirTemp("", "training-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	datasetPath := filepath.Join(workDir, "dataset.csv")
	log.Info().Str("s3_input", cfg.S3Input).Msg("downloading training data")
	if err := p.objects.Download(ctx, cfg.S3Input, datasetPath); err != nil {
		return fmt.Errorf("failed to download training data: %w", err)
	}

	targetColumn, _ := cfg.Hyperparameters["target_column"].(string)
	ds, err := LoadCSV(datasetPath, targetColumn)
	if err != nil {
		return err
	}
	log.Info().
		Int("rows", len(ds.Rows)).
		Int("features", len(ds.FeatureColumns())).
		Str("target_column", ds.TargetColumn()).
		Msg("dataset loaded")

	model, err := p.trainer.Train(ctx, ds, cfg.Hyperparameters)
	if err != nil {
		return err
	}
	model.JobID = cfg.JobID
	log.Info().
		Str("task_type", model.TaskType).
		Interface("metrics", model.Metrics).
		Msg("model trained")

	artifactPath := filepath.Join(workDir, "model.pkl")
	raw, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}
	if err := os.WriteFile(artifactPath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}

	modelS3Path := ModelKey(cfg.S3Output)
	if err := p.objects.Upload(ctx, artifactPath, modelS3Path); err != nil {
		return fmt.Errorf("failed to upload model artifact: %w", err)
	}
	log.Info().Str("model_s3_path", modelS3Path).Msg("model artifact uploaded")

	metrics := make(map[string]any, len(model.Metrics))
	for k, v := range model.Metrics {
		metrics[k] = v
	}
	if err := p.jobs.UpdateJobStatus(ctx, cfg.JobID,
		models.JobStatusRunning, models.JobStatusCompleted, map[string]any{
			"metrics": metrics,
		}); err != nil {
		return fmt.Errorf("failed to report job completion: %w", err)
	}

	log.Info().Msg("training job completed")
	return nil
}
