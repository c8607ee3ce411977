package aws

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client bundles the AWS service clients the platform talks to, all built
// from one shared credential chain.
type Client struct {
	DynamoDB    *dynamodb.Client
	ECS         *ecs.Client
	S3          *s3.Client
	AutoScaling *applicationautoscaling.Client
}

// NewClient creates a new AWS client
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &Client{
		DynamoDB:    dynamodb.NewFromConfig(cfg),
		ECS:         ecs.NewFromConfig(cfg),
		S3:          s3.NewFromConfig(cfg),
		AutoScaling: applicationautoscaling.NewFromConfig(cfg),
	}, nil
}
