package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// updateStatus performs a single compare-and-swap write: status moves from the
// expected value to the new one, and any extra fields are set in the same
// write. Attribute names are aliased throughout since several record fields
// (status, error) collide with DynamoDB reserved words.
func updateStatus(ctx context.Context, client DynamoAPI, table, keyName, keyValue, from, to string, extra map[string]any) error {
	expr := "SET #s = :status"
	names := map[string]string{"#s": "status"}
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: to},
		":from":   &types.AttributeValueMemberS{Value: from},
	}

	fields := make([]string, 0, len(extra))
	for field := range extra {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for i, field := range fields {
		av, err := toAttr(extra[field])
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		nameAlias := fmt.Sprintf("#f%d", i)
		valueAlias := fmt.Sprintf(":v%d", i)
		expr += fmt.Sprintf(", %s = %s", nameAlias, valueAlias)
		names[nameAlias] = field
		values[valueAlias] = av
	}

	_, err := client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       map[string]types.AttributeValue{keyName: &types.AttributeValueMemberS{Value: keyValue}},
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("#s = :from"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return fmt.Errorf("%s %s: %w", keyName, keyValue, ErrStaleStatus)
		}
		return fmt.Errorf("update %s %s: %w", keyName, keyValue, err)
	}
	return nil
}
