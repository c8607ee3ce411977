package store

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory single-table stand-in for the DynamoDB client.
// It honors the two condition expressions the stores use:
// attribute_not_exists(<key>) and #s = :from.
type fakeDynamo struct {
	keyName string
	items   map[string]map[string]types.AttributeValue

	putErr    error
	getErr    error
	updateErr error
	deleteErr error
	scanErr   error

	lastUpdate *dynamodb.UpdateItemInput
}

func newFakeDynamo(keyName string) *fakeDynamo {
	return &fakeDynamo{
		keyName: keyName,
		items:   map[string]map[string]types.AttributeValue{},
	}
}

func (f *fakeDynamo) keyOf(av map[string]types.AttributeValue) string {
	if s, ok := av[f.keyName].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	key := f.keyOf(in.Item)
	if in.ConditionExpression != nil && strings.HasPrefix(*in.ConditionExpression, "attribute_not_exists") {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.items[f.keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdate = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	key := f.keyOf(in.Key)
	item, exists := f.items[key]
	if !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}

	if in.ConditionExpression != nil && strings.Contains(*in.ConditionExpression, ":from") {
		statusField := in.ExpressionAttributeNames["#s"]
		want := in.ExpressionAttributeValues[":from"].(*types.AttributeValueMemberS).Value
		got, ok := item[statusField].(*types.AttributeValueMemberS)
		if !ok || got.Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	for alias, field := range in.ExpressionAttributeNames {
		var valueAlias string
		if alias == "#s" {
			valueAlias = ":status"
		} else {
			valueAlias = ":v" + strings.TrimPrefix(alias, "#f")
		}
		if av, ok := in.ExpressionAttributeValues[valueAlias]; ok {
			item[field] = av
		}
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.items, f.keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := &dynamodb.ScanOutput{}
	limit := len(f.items)
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
	}
	for _, item := range f.items {
		if len(out.Items) >= limit {
			break
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
