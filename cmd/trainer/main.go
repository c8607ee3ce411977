package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/config"
	"github.com/rishimj/sagemaker-clone/core/store"
	"github.com/rishimj/sagemaker-clone/providers/aws"
	"github.com/rishimj/sagemaker-clone/storage"
	"github.com/rishimj/sagemaker-clone/training"
)

// Training-container entrypoint. The launcher injects the per-job parameters
// through the environment.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	jobID := os.Getenv("JOB_ID")
	if jobID == "" {
		log.Fatal().Msg("JOB_ID is required")
	}
	log = log.With().Str("job_id", jobID).Logger()

	hyperparams := map[string]any{}
	if raw := os.Getenv("HYPERPARAMS"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &hyperparams); err != nil {
			log.Warn().Err(err).Str("hyperparams", raw).Msg("failed to parse HYPERPARAMS, using empty set")
			hyperparams = map[string]any{}
		}
	}

	cfg := config.Load()
	ctx := context.Background()

	awsClient, err := aws.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AWS clients")
	}

	pipeline := training.NewPipeline(
		storage.NewS3Handler(awsClient.S3, log),
		training.BaselineTrainer{},
		store.NewJobStore(awsClient.DynamoDB, cfg.JobsTable, log),
		log,
	)

	err = pipeline.Run(ctx, training.Config{
		JobID:           jobID,
		S3Input:         os.Getenv("S3_INPUT"),
		S3Output:        os.Getenv("S3_OUTPUT"),
		Hyperparameters: hyperparams,
	})
	if err != nil {
		os.Exit(1)
	}
}
