package config

import (
	"os"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string

	// AWS
	AWSRegion    string
	AWSAccountID string

	// DynamoDB
	JobsTable      string
	EndpointsTable string

	// ECS
	ECSCluster       string
	SubnetID         string
	TrainingTaskDef  string
	InferenceTaskDef string

	// Load balancer
	TargetGroupARN string
	ALBARN         string
	ALBDNSName     string

	// S3
	S3Bucket string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "3000"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSAccountID:     getEnv("AWS_ACCOUNT_ID", ""),
		JobsTable:        getEnv("DYNAMODB_TABLE", "ml-jobs"),
		EndpointsTable:   getEnv("ENDPOINTS_TABLE", "ml-endpoints"),
		ECSCluster:       getEnv("ECS_CLUSTER", "training-cluster"),
		SubnetID:         getEnv("SUBNET_ID", ""),
		TrainingTaskDef:  getEnv("TRAINING_TASK_DEFINITION", "training-job"),
		InferenceTaskDef: getEnv("INFERENCE_TASK_DEFINITION", "inference-task"),
		TargetGroupARN:   getEnv("TARGET_GROUP_ARN", ""),
		ALBARN:           getEnv("ALB_ARN", ""),
		ALBDNSName:       getEnv("ALB_DNS_NAME", ""),
		S3Bucket:         getEnv("S3_BUCKET_NAME", "ml-platform-bucket"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
