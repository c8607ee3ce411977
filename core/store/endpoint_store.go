package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/core/models"
)

// EndpointStore handles DynamoDB operations for endpoint tracking
type EndpointStore struct {
	client DynamoAPI
	table  string
	log    zerolog.Logger
}

// NewEndpointStore creates a new endpoint store backed by the given table.
func NewEndpointStore(client DynamoAPI, table string, log zerolog.Logger) *EndpointStore {
	return &EndpointStore{
		client: client,
		table:  table,
		log:    log.With().Str("table", table).Logger(),
	}
}

// EndpointData holds the parameters of a new endpoint record.
type EndpointData struct {
	EndpointName   string
	JobID          string
	ModelS3Path    string
	TargetGroupARN string
	TaskDefinition string
}

// CreateEndpoint inserts a new endpoint record with status creating. The put
// is conditional on the name not already existing, so a concurrent create for
// the same name loses with ErrEndpointExists instead of clobbering the record.
func (s *EndpointStore) CreateEndpoint(ctx context.Context, data EndpointData) error {
	if data.EndpointName == "" {
		return fmt.Errorf("endpoint_name is required")
	}

	item := map[string]any{
		"endpoint_name":       data.EndpointName,
		"status":              string(models.EndpointStatusCreating),
		"created_at":          time.Now().Unix(),
		"job_id":              data.JobID,
		"model_s3_path":       data.ModelS3Path,
		"service_arn":         "",
		"endpoint_url":        "",
		"autoscaling_enabled": false,
		"target_group_arn":    data.TargetGroupARN,
		"task_definition":     data.TaskDefinition,
	}

	avs, err := toAttrMap(item)
	if err != nil {
		return fmt.Errorf("marshal endpoint %s: %w", data.EndpointName, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                avs,
		ConditionExpression: aws.String("attribute_not_exists(endpoint_name)"),
	}); err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return fmt.Errorf("endpoint %s: %w", data.EndpointName, ErrEndpointExists)
		}
		s.log.Error().Err(err).Str("endpoint_name", data.EndpointName).Msg("failed to create endpoint")
		return fmt.Errorf("create endpoint %s: %w", data.EndpointName, err)
	}

	s.log.Info().Str("endpoint_name", data.EndpointName).Str("job_id", data.JobID).Msg("endpoint created")
	return nil
}

// GetEndpoint retrieves an endpoint by name. A missing endpoint is (nil, nil).
func (s *EndpointStore) GetEndpoint(ctx context.Context, name string) (*models.Endpoint, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"endpoint_name": &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		s.log.Error().Err(err).Str("endpoint_name", name).Msg("failed to get endpoint")
		return nil, fmt.Errorf("get endpoint %s: %w", name, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	item, err := fromAttrMap(out.Item)
	if err != nil {
		return nil, fmt.Errorf("unmarshal endpoint %s: %w", name, err)
	}
	ep := endpointFromItem(item)
	return &ep, nil
}

// UpdateEndpointStatus moves an endpoint from one status to another, setting
// any extra fields in the same conditional write.
func (s *EndpointStore) UpdateEndpointStatus(ctx context.Context, name string, from, to models.EndpointStatus, extra map[string]any) error {
	if !models.ValidEndpointTransition(from, to) {
		return fmt.Errorf("endpoint %s: %s -> %s: %w", name, from, to, ErrInvalidTransition)
	}

	if err := updateStatus(ctx, s.client, s.table, "endpoint_name", name, string(from), string(to), extra); err != nil {
		s.log.Error().Err(err).Str("endpoint_name", name).Str("status", string(to)).Msg("failed to update endpoint status")
		return err
	}

	s.log.Info().Str("endpoint_name", name).Str("status", string(to)).Msg("endpoint status updated")
	return nil
}

// ListEndpoints returns up to limit endpoints in no particular order.
func (s *EndpointStore) ListEndpoints(ctx context.Context, limit int32) ([]models.Endpoint, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(limit),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list endpoints")
		return nil, fmt.Errorf("list endpoints: %w", err)
	}

	endpoints := make([]models.Endpoint, 0, len(out.Items))
	for _, raw := range out.Items {
		item, err := fromAttrMap(raw)
		if err != nil {
			return nil, fmt.Errorf("unmarshal endpoint item: %w", err)
		}
		endpoints = append(endpoints, endpointFromItem(item))
	}
	return endpoints, nil
}

// DeleteEndpoint removes an endpoint record. Deleting a missing record is not
// an error.
func (s *EndpointStore) DeleteEndpoint(ctx context.Context, name string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"endpoint_name": &types.AttributeValueMemberS{Value: name},
		},
	}); err != nil {
		s.log.Error().Err(err).Str("endpoint_name", name).Msg("failed to delete endpoint")
		return fmt.Errorf("delete endpoint %s: %w", name, err)
	}

	s.log.Info().Str("endpoint_name", name).Msg("endpoint deleted")
	return nil
}

func endpointFromItem(item map[string]any) models.Endpoint {
	return models.Endpoint{
		EndpointName:       stringAttr(item, "endpoint_name"),
		JobID:              stringAttr(item, "job_id"),
		ModelS3Path:        stringAttr(item, "model_s3_path"),
		Status:             models.EndpointStatus(stringAttr(item, "status")),
		ServiceARN:         stringAttr(item, "service_arn"),
		EndpointURL:        stringAttr(item, "endpoint_url"),
		AutoscalingEnabled: boolAttr(item, "autoscaling_enabled"),
		TargetGroupARN:     stringAttr(item, "target_group_arn"),
		TaskDefinition:     stringAttr(item, "task_definition"),
		CreatedAt:          int64Attr(item, "created_at"),
	}
}
