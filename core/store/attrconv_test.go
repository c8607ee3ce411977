package store

import (
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestFloatDecimalRoundTrip(t *testing.T) {
	for _, f := range []float64{0.001, 0.1, 1.0 / 3.0, 100.0, 1e-10, 123456.789, 2.5e20} {
		av, err := toAttr(f)
		if err != nil {
			t.Fatalf("toAttr(%v): %v", f, err)
		}
		back, err := fromAttr(av)
		if err != nil {
			t.Fatalf("fromAttr(%v): %v", f, err)
		}
		if got, ok := back.(float64); !ok || got != f {
			t.Errorf("round trip of %v: got %v (%T)", f, back, back)
		}
	}
}

func TestNestedHyperparameterRoundTrip(t *testing.T) {
	params := map[string]any{
		"learning_rate": 0.001,
		"epochs":        int64(10),
		"optimizer":     "adam",
		"early_stop":    true,
		"layers":        []any{int64(64), int64(32)},
		"schedule": map[string]any{
			"warmup_fraction": 0.06,
			"decay":           []any{0.9, 0.99},
		},
	}

	av, err := toAttr(params)
	if err != nil {
		t.Fatalf("toAttr: %v", err)
	}
	back, err := fromAttr(av)
	if err != nil {
		t.Fatalf("fromAttr: %v", err)
	}
	if !reflect.DeepEqual(back, params) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", back, params)
	}
}

func TestToAttrNumberForms(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{0.001, "0.001"},
		{float64(100), "100.0"},
		{2.5e20, "250000000000000000000.0"},
		{int64(1725000000), "1725000000"},
		{int(7), "7"},
	}
	for _, c := range cases {
		av, err := toAttr(c.in)
		if err != nil {
			t.Fatalf("toAttr(%v): %v", c.in, err)
		}
		n, ok := av.(*types.AttributeValueMemberN)
		if !ok {
			t.Fatalf("toAttr(%v): got %T, want N", c.in, av)
		}
		if n.Value != c.want {
			t.Errorf("toAttr(%v) = %q, want %q", c.in, n.Value, c.want)
		}
	}
}

func TestFromAttrIntegersStayIntegral(t *testing.T) {
	back, err := fromAttr(&types.AttributeValueMemberN{Value: "1725000000"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := back.(int64); !ok {
		t.Errorf("integral N decoded as %T, want int64", back)
	}
}

func TestIntegralFloatsStayFloat(t *testing.T) {
	for _, f := range []float64{100.0, 0.0, -3.0} {
		av, err := toAttr(f)
		if err != nil {
			t.Fatalf("toAttr(%v): %v", f, err)
		}
		back, err := fromAttr(av)
		if err != nil {
			t.Fatalf("fromAttr(%v): %v", f, err)
		}
		got, ok := back.(float64)
		if !ok {
			t.Fatalf("round trip of %v: got %T, want float64", f, back)
		}
		if got != f {
			t.Errorf("round trip of %v: got %v", f, got)
		}
	}
}

func TestToAttrRejectsUnsupportedType(t *testing.T) {
	if _, err := toAttr(struct{}{}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
