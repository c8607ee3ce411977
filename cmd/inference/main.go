package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/config"
	"github.com/rishimj/sagemaker-clone/inference"
	"github.com/rishimj/sagemaker-clone/providers/aws"
	"github.com/rishimj/sagemaker-clone/storage"
)

// Inference-container entrypoint. The task definition injects MODEL_S3_PATH
// and ENDPOINT_NAME; the ALB health-checks :8080 until the model loads.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	modelS3Path := os.Getenv("MODEL_S3_PATH")
	if modelS3Path == "" {
		log.Fatal().Msg("MODEL_S3_PATH is required")
	}
	endpointName := os.Getenv("ENDPOINT_NAME")
	if endpointName == "" {
		endpointName = "unknown"
	}

	cfg := config.Load()
	ctx := context.Background()

	awsClient, err := aws.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AWS clients")
	}

	srv := inference.NewServer(endpointName, storage.NewS3Handler(awsClient.S3, log), log)

	// Serve immediately so the ALB sees 503 rather than connection refused
	// while the artifact downloads.
	go func() {
		if err := srv.LoadModel(ctx, modelS3Path); err != nil {
			log.Fatal().Err(err).Msg("failed to load model")
		}
	}()

	addr := ":" + getEnv("INFERENCE_PORT", "8080")
	log.Info().Str("addr", addr).Msg("starting inference server")
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("inference server failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
