package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/api/rest/handlers"
	"github.com/rishimj/sagemaker-clone/api/rest/routes"
	"github.com/rishimj/sagemaker-clone/config"
	"github.com/rishimj/sagemaker-clone/core/autoscaling"
	"github.com/rishimj/sagemaker-clone/core/launcher"
	"github.com/rishimj/sagemaker-clone/core/store"
	"github.com/rishimj/sagemaker-clone/providers/aws"
	"github.com/rishimj/sagemaker-clone/storage"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	ctx := context.Background()
	awsClient, err := aws.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AWS clients")
	}

	jobStore := store.NewJobStore(awsClient.DynamoDB, cfg.JobsTable, log)
	endpointStore := store.NewEndpointStore(awsClient.DynamoDB, cfg.EndpointsTable, log)

	ecsLauncher := launcher.New(awsClient.ECS, launcher.Config{
		Cluster:          cfg.ECSCluster,
		SubnetID:         cfg.SubnetID,
		TrainingTaskDef:  cfg.TrainingTaskDef,
		InferenceTaskDef: cfg.InferenceTaskDef,
		TargetGroupARN:   cfg.TargetGroupARN,
		JobsTable:        cfg.JobsTable,
		Region:           cfg.AWSRegion,
	}, log)

	autoscaler := autoscaling.New(awsClient.AutoScaling, cfg.ECSCluster, cfg.TargetGroupARN, cfg.ALBARN, log)
	s3Handler := storage.NewS3Handler(awsClient.S3, log)

	r := mux.NewRouter()
	routes.SetupRoutes(r, routes.Deps{
		Jobs:       jobStore,
		Endpoints:  endpointStore,
		Launcher:   ecsLauncher,
		Autoscaler: autoscaler,
		Objects:    s3Handler,
		Endpoint: handlers.EndpointConfig{
			S3Bucket:       cfg.S3Bucket,
			ALBDNSName:     cfg.ALBDNSName,
			TargetGroupARN: cfg.TargetGroupARN,
			TaskDefinition: cfg.InferenceTaskDef,
		},
		S3Bucket: cfg.S3Bucket,
		Log:      log,
	})

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
