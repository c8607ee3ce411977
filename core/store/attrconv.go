package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB numbers are exact decimal strings. Floats are converted to their
// shortest exact decimal form on write and parsed back on read, recursively
// through nested maps and lists, so hyperparameter values round-trip losslessly.

func toAttr(v any) (types.AttributeValue, error) {
	switch val := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: val}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}, nil
	case int:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(val), 10)}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(val, 10)}, nil
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		// An integral float keeps its decimal point, like Python's str(),
		// so it decodes as float64 rather than int64.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return &types.AttributeValueMemberN{Value: s}, nil
	case map[string]any:
		m, err := toAttrMap(val)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, len(val))
		for i, item := range val {
			av, err := toAttr(item)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", v)
	}
}

func toAttrMap(m map[string]any) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, v := range m {
		av, err := toAttr(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

func fromAttr(av types.AttributeValue) (any, error) {
	switch val := av.(type) {
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return val.Value, nil
	case *types.AttributeValueMemberBOOL:
		return val.Value, nil
	case *types.AttributeValueMemberN:
		// Integral numbers come back as int64 so epoch timestamps survive
		// JSON serialization without scientific notation.
		if !strings.ContainsAny(val.Value, ".eE") {
			if n, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
				return n, nil
			}
		}
		f, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse number %q: %w", val.Value, err)
		}
		return f, nil
	case *types.AttributeValueMemberM:
		return fromAttrMap(val.Value)
	case *types.AttributeValueMemberL:
		out := make([]any, len(val.Value))
		for i, item := range val.Value {
			v, err := fromAttr(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value %T", av)
	}
}

func fromAttrMap(m map[string]types.AttributeValue) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, av := range m {
		v, err := fromAttr(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func stringAttr(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func int64Attr(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func boolAttr(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func mapAttr(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}
