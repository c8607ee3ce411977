package autoscaling

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	appautoscaling "github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling/types"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/core/launcher"
)

// API is the subset of the Application Auto Scaling client the configurator uses.
type API interface {
	RegisterScalableTarget(ctx context.Context, params *appautoscaling.RegisterScalableTargetInput, optFns ...func(*appautoscaling.Options)) (*appautoscaling.RegisterScalableTargetOutput, error)
	PutScalingPolicy(ctx context.Context, params *appautoscaling.PutScalingPolicyInput, optFns ...func(*appautoscaling.Options)) (*appautoscaling.PutScalingPolicyOutput, error)
	DescribeScalingPolicies(ctx context.Context, params *appautoscaling.DescribeScalingPoliciesInput, optFns ...func(*appautoscaling.Options)) (*appautoscaling.DescribeScalingPoliciesOutput, error)
	DeleteScalingPolicy(ctx context.Context, params *appautoscaling.DeleteScalingPolicyInput, optFns ...func(*appautoscaling.Options)) (*appautoscaling.DeleteScalingPolicyOutput, error)
	DeregisterScalableTarget(ctx context.Context, params *appautoscaling.DeregisterScalableTargetInput, optFns ...func(*appautoscaling.Options)) (*appautoscaling.DeregisterScalableTargetOutput, error)
}

// Policy is a target-tracking policy against the ALB request-count metric.
type Policy struct {
	MinCapacity      int32
	MaxCapacity      int32
	TargetValue      float64
	ScaleOutCooldown int32
	ScaleInCooldown  int32
}

// DefaultPolicy keeps endpoints scaled to zero when idle and targets 100
// requests per minute per task.
func DefaultPolicy() Policy {
	return Policy{
		MinCapacity:      0,
		MaxCapacity:      10,
		TargetValue:      100.0,
		ScaleOutCooldown: 60,
		ScaleInCooldown:  300,
	}
}

// Configurator manages target-tracking autoscaling for inference services.
// Both Enable and Disable are best-effort: the boolean result is advisory and
// a half-configured setup leaves the endpoint serving, just without elasticity.
type Configurator struct {
	client         API
	cluster        string
	targetGroupARN string
	albARN         string
	log            zerolog.Logger
}

// New creates a configurator scoped to one ECS cluster and target group.
func New(client API, cluster, targetGroupARN, albARN string, log zerolog.Logger) *Configurator {
	return &Configurator{
		client:         client,
		cluster:        cluster,
		targetGroupARN: targetGroupARN,
		albARN:         albARN,
		log:            log.With().Str("cluster", cluster).Logger(),
	}
}

func (c *Configurator) resourceID(endpointName string) string {
	return fmt.Sprintf("service/%s/%s", c.cluster, launcher.ServiceName(endpointName))
}

// Enable registers the endpoint's service as a scalable target and attaches
// one request-rate tracking policy. Returns false on any failure; the
// scalable-target registration is not rolled back.
func (c *Configurator) Enable(ctx context.Context, endpointName string, policy Policy) bool {
	log := c.log.With().Str("endpoint_name", endpointName).Logger()
	resourceID := c.resourceID(endpointName)

	log.Info().Str("resource_id", resourceID).Msg("setting up autoscaling")

	_, err := c.client.RegisterScalableTarget(ctx, &appautoscaling.RegisterScalableTargetInput{
		ServiceNamespace:  types.ServiceNamespaceEcs,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: types.ScalableDimensionECSServiceDesiredCount,
		MinCapacity:       aws.Int32(policy.MinCapacity),
		MaxCapacity:       aws.Int32(policy.MaxCapacity),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to register scalable target")
		return false
	}

	label, degraded, err := ResourceLabel(c.targetGroupARN, c.albARN)
	if err != nil {
		log.Error().Err(err).Msg("failed to derive metric resource label")
		return false
	}
	if degraded {
		log.Warn().Str("resource_label", label).Msg("load balancer ARN not set, using simplified resource label")
	}

	_, err = c.client.PutScalingPolicy(ctx, &appautoscaling.PutScalingPolicyInput{
		PolicyName:        aws.String(endpointName + "-request-count-scaling"),
		ServiceNamespace:  types.ServiceNamespaceEcs,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: types.ScalableDimensionECSServiceDesiredCount,
		PolicyType:        types.PolicyTypeTargetTrackingScaling,
		TargetTrackingScalingPolicyConfiguration: &types.TargetTrackingScalingPolicyConfiguration{
			TargetValue: aws.Float64(policy.TargetValue),
			PredefinedMetricSpecification: &types.PredefinedMetricSpecification{
				PredefinedMetricType: types.MetricTypeALBRequestCountPerTarget,
				ResourceLabel:        aws.String(label),
			},
			ScaleOutCooldown: aws.Int32(policy.ScaleOutCooldown),
			ScaleInCooldown:  aws.Int32(policy.ScaleInCooldown),
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to attach scaling policy")
		return false
	}

	log.Info().
		Str("resource_label", label).
		Float64("target_value", policy.TargetValue).
		Msg("autoscaling configured")
	return true
}

// Disable tears down autoscaling for the endpoint: delete attached policies,
// then deregister the scalable target. Every step runs even when an earlier
// one fails; the result reports whether teardown was fully clean.
func (c *Configurator) Disable(ctx context.Context, endpointName string) bool {
	log := c.log.With().Str("endpoint_name", endpointName).Logger()
	resourceID := c.resourceID(endpointName)
	clean := true

	policies, err := c.client.DescribeScalingPolicies(ctx, &appautoscaling.DescribeScalingPoliciesInput{
		ServiceNamespace:  types.ServiceNamespaceEcs,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: types.ScalableDimensionECSServiceDesiredCount,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to list scaling policies, continuing")
		clean = false
	} else {
		for _, policy := range policies.ScalingPolicies {
			_, err := c.client.DeleteScalingPolicy(ctx, &appautoscaling.DeleteScalingPolicyInput{
				PolicyName:        policy.PolicyName,
				ServiceNamespace:  types.ServiceNamespaceEcs,
				ResourceId:        aws.String(resourceID),
				ScalableDimension: types.ScalableDimensionECSServiceDesiredCount,
			})
			if err != nil {
				log.Warn().Err(err).Str("policy_name", aws.ToString(policy.PolicyName)).Msg("failed to delete scaling policy, continuing")
				clean = false
			}
		}
	}

	_, err = c.client.DeregisterScalableTarget(ctx, &appautoscaling.DeregisterScalableTargetInput{
		ServiceNamespace:  types.ServiceNamespaceEcs,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: types.ScalableDimensionECSServiceDesiredCount,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to deregister scalable target")
		return false
	}

	log.Info().Str("resource_id", resourceID).Msg("autoscaling deregistered")
	return clean
}

// ResourceLabel builds the metric resource label for the ALB request-count
// metric from the target-group ARN and, when available, the load-balancer
// ARN. Without the load-balancer ARN a degraded target-group-only label is
// returned with degraded set.
//
// ARN shapes:
//
//	arn:aws:elasticloadbalancing:region:account:targetgroup/name/id
//	arn:aws:elasticloadbalancing:region:account:loadbalancer/app/name/id
func ResourceLabel(targetGroupARN, albARN string) (label string, degraded bool, err error) {
	tgPath, err := arnResourcePath(targetGroupARN, "targetgroup", 3)
	if err != nil {
		return "", false, fmt.Errorf("target group ARN: %w", err)
	}

	if albARN == "" {
		return strings.Join(tgPath, "/"), true, nil
	}

	albPath, err := arnResourcePath(albARN, "app", 3)
	if err != nil {
		return "", false, fmt.Errorf("load balancer ARN: %w", err)
	}

	return strings.Join(append(albPath, tgPath...), "/"), false, nil
}

func arnResourcePath(arn, wantPrefix string, wantParts int) ([]string, error) {
	idx := strings.LastIndex(arn, ":")
	if idx < 0 {
		return nil, fmt.Errorf("malformed ARN %q", arn)
	}
	parts := strings.Split(arn[idx+1:], "/")
	// Load balancer ARNs carry a leading "loadbalancer" segment before the
	// app/name/id triple.
	if len(parts) == wantParts+1 && parts[0] == "loadbalancer" {
		parts = parts[1:]
	}
	if len(parts) != wantParts || parts[0] != wantPrefix {
		return nil, fmt.Errorf("unexpected resource path in ARN %q", arn)
	}
	return parts, nil
}
