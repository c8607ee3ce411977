package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/rs/zerolog"
)

// ECSAPI is the subset of the ECS client the launcher uses.
type ECSAPI interface {
	RunTask(ctx context.Context, params *ecs.RunTaskInput, optFns ...func(*ecs.Options)) (*ecs.RunTaskOutput, error)
	CreateService(ctx context.Context, params *ecs.CreateServiceInput, optFns ...func(*ecs.Options)) (*ecs.CreateServiceOutput, error)
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
	DeleteService(ctx context.Context, params *ecs.DeleteServiceInput, optFns ...func(*ecs.Options)) (*ecs.DeleteServiceOutput, error)
}

// Config holds the scheduler placement settings shared by all launches.
type Config struct {
	Cluster          string
	SubnetID         string
	TrainingTaskDef  string
	InferenceTaskDef string
	TargetGroupARN   string
	JobsTable        string
	Region           string
}

// Launcher starts and tears down compute units on ECS Fargate. Scheduler and
// transport failures are returned as errors, never panics; the caller decides
// whether a failed launch is fatal.
type Launcher struct {
	client ECSAPI
	cfg    Config
	log    zerolog.Logger
}

// New creates a launcher for the given cluster configuration.
func New(client ECSAPI, cfg Config, log zerolog.Logger) *Launcher {
	return &Launcher{
		client: client,
		cfg:    cfg,
		log:    log.With().Str("cluster", cfg.Cluster).Logger(),
	}
}

// TrainingTask describes one ephemeral training launch.
type TrainingTask struct {
	JobID           string
	Image           string
	S3Input         string
	S3Output        string
	Hyperparameters map[string]any
}

// ServiceInfo describes a launched inference service.
type ServiceInfo struct {
	ServiceARN  string
	ServiceName string
	Status      string
}

// ServiceName returns the ECS service name used for an endpoint.
func ServiceName(endpointName string) string {
	return "inference-" + endpointName
}

// RunTrainingTask starts a one-shot Fargate task for a training job and
// returns the task ARN. The container picks up its work from environment
// variables; the image override is advisory since Fargate takes the image
// from the task definition.
func (l *Launcher) RunTrainingTask(ctx context.Context, task TrainingTask) (string, error) {
	log := l.log.With().Str("job_id", task.JobID).Logger()

	hyperparams, err := json.Marshal(task.Hyperparameters)
	if err != nil {
		return "", fmt.Errorf("marshal hyperparameters: %w", err)
	}

	log.Info().
		Str("task_definition", l.cfg.TrainingTaskDef).
		Str("image", task.Image).
		Str("s3_input", task.S3Input).
		Str("s3_output", task.S3Output).
		Msg("starting training task")

	out, err := l.client.RunTask(ctx, &ecs.RunTaskInput{
		Cluster:              aws.String(l.cfg.Cluster),
		TaskDefinition:       aws.String(l.cfg.TrainingTaskDef),
		LaunchType:           types.LaunchTypeFargate,
		NetworkConfiguration: l.networkConfiguration(),
		Overrides: &types.TaskOverride{
			ContainerOverrides: []types.ContainerOverride{{
				Name: aws.String("training"),
				Environment: []types.KeyValuePair{
					{Name: aws.String("JOB_ID"), Value: aws.String(task.JobID)},
					{Name: aws.String("S3_INPUT"), Value: aws.String(task.S3Input)},
					{Name: aws.String("S3_OUTPUT"), Value: aws.String(task.S3Output)},
					{Name: aws.String("HYPERPARAMS"), Value: aws.String(string(hyperparams))},
					{Name: aws.String("IMAGE_URI"), Value: aws.String(task.Image)},
					{Name: aws.String("DYNAMODB_TABLE"), Value: aws.String(l.cfg.JobsTable)},
					{Name: aws.String("AWS_REGION"), Value: aws.String(l.cfg.Region)},
				},
			}},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("run_task call failed")
		return "", fmt.Errorf("run training task: %w", err)
	}

	if len(out.Tasks) > 0 {
		arn := aws.ToString(out.Tasks[0].TaskArn)
		log.Info().Str("task_arn", arn).Msg("training task started")
		return arn, nil
	}

	for _, failure := range out.Failures {
		log.Error().
			Str("arn", aws.ToString(failure.Arn)).
			Str("reason", aws.ToString(failure.Reason)).
			Str("detail", aws.ToString(failure.Detail)).
			Msg("training task failure")
	}
	return "", fmt.Errorf("run training task: scheduler reported no tasks started")
}

// CreateInferenceService starts a long-running Fargate service behind the
// load-balancer target group.
func (l *Launcher) CreateInferenceService(ctx context.Context, endpointName string) (*ServiceInfo, error) {
	log := l.log.With().Str("endpoint_name", endpointName).Logger()
	serviceName := ServiceName(endpointName)

	log.Info().
		Str("service_name", serviceName).
		Str("task_definition", l.cfg.InferenceTaskDef).
		Str("target_group_arn", l.cfg.TargetGroupARN).
		Msg("creating inference service")

	out, err := l.client.CreateService(ctx, &ecs.CreateServiceInput{
		Cluster:              aws.String(l.cfg.Cluster),
		ServiceName:          aws.String(serviceName),
		TaskDefinition:       aws.String(l.cfg.InferenceTaskDef),
		DesiredCount:         aws.Int32(1),
		LaunchType:           types.LaunchTypeFargate,
		NetworkConfiguration: l.networkConfiguration(),
		LoadBalancers: []types.LoadBalancer{{
			TargetGroupArn: aws.String(l.cfg.TargetGroupARN),
			ContainerName:  aws.String("inference"),
			ContainerPort:  aws.Int32(8080),
		}},
	})
	if err != nil {
		log.Error().Err(err).Msg("create_service call failed")
		return nil, fmt.Errorf("create inference service %s: %w", serviceName, err)
	}
	if out.Service == nil {
		return nil, fmt.Errorf("create inference service %s: scheduler returned no service", serviceName)
	}

	info := &ServiceInfo{
		ServiceARN:  aws.ToString(out.Service.ServiceArn),
		ServiceName: aws.ToString(out.Service.ServiceName),
		Status:      aws.ToString(out.Service.Status),
	}
	log.Info().Str("service_arn", info.ServiceARN).Str("status", info.Status).Msg("inference service created")
	return info, nil
}

// DeleteInferenceService scales the service to zero and removes it. A service
// that is already gone counts as success.
func (l *Launcher) DeleteInferenceService(ctx context.Context, endpointName string) error {
	log := l.log.With().Str("endpoint_name", endpointName).Logger()
	serviceName := ServiceName(endpointName)

	_, err := l.client.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:      aws.String(l.cfg.Cluster),
		Service:      aws.String(serviceName),
		DesiredCount: aws.Int32(0),
	})
	if err != nil {
		if serviceGone(err) {
			log.Info().Str("service_name", serviceName).Msg("service already gone")
			return nil
		}
		log.Error().Err(err).Str("service_name", serviceName).Msg("failed to scale service to zero")
		return fmt.Errorf("scale down service %s: %w", serviceName, err)
	}

	_, err = l.client.DeleteService(ctx, &ecs.DeleteServiceInput{
		Cluster: aws.String(l.cfg.Cluster),
		Service: aws.String(serviceName),
		Force:   aws.Bool(true),
	})
	if err != nil {
		if serviceGone(err) {
			return nil
		}
		log.Error().Err(err).Str("service_name", serviceName).Msg("failed to delete service")
		return fmt.Errorf("delete service %s: %w", serviceName, err)
	}

	log.Info().Str("service_name", serviceName).Msg("inference service deleted")
	return nil
}

func (l *Launcher) networkConfiguration() *types.NetworkConfiguration {
	return &types.NetworkConfiguration{
		AwsvpcConfiguration: &types.AwsVpcConfiguration{
			Subnets:        []string{l.cfg.SubnetID},
			AssignPublicIp: types.AssignPublicIpEnabled,
		},
	}
}

func serviceGone(err error) bool {
	var notFound *types.ServiceNotFoundException
	var notActive *types.ServiceNotActiveException
	return errors.As(err, &notFound) || errors.As(err, &notActive)
}
