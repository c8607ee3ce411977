package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoAPI is the subset of the DynamoDB client used by the record stores.
// Tests substitute an in-memory fake.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var (
	// ErrEndpointExists is returned when creating an endpoint whose name
	// already has a record. The write is conditional, so two concurrent
	// creates cannot both succeed.
	ErrEndpointExists = errors.New("endpoint already exists")

	// ErrStaleStatus is returned when a status update's expected current
	// status no longer matches the stored one.
	ErrStaleStatus = errors.New("stored status does not match expected status")

	// ErrInvalidTransition is returned before any write when the requested
	// status change is not in the entity's transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
)
