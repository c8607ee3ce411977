package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rishimj/sagemaker-clone/core/models"
)

func newTestEndpointStore() (*EndpointStore, *fakeDynamo) {
	fake := newFakeDynamo("endpoint_name")
	return NewEndpointStore(fake, "ml-endpoints", zerolog.Nop()), fake
}

func TestCreateEndpointConflict(t *testing.T) {
	s, _ := newTestEndpointStore()
	ctx := context.Background()

	data := EndpointData{EndpointName: "e1", JobID: "job-aaaaaaaa", ModelS3Path: "s3://b/models/job-aaaaaaaa/model.pkl"}
	if err := s.CreateEndpoint(ctx, data); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := s.CreateEndpoint(ctx, data)
	if !errors.Is(err, ErrEndpointExists) {
		t.Errorf("second create: err = %v, want ErrEndpointExists", err)
	}
}

func TestCreateEndpointRequiresName(t *testing.T) {
	s, _ := newTestEndpointStore()
	if err := s.CreateEndpoint(context.Background(), EndpointData{JobID: "job-aaaaaaaa"}); err == nil {
		t.Error("expected error for empty endpoint name")
	}
}

func TestEndpointLifecycle(t *testing.T) {
	s, _ := newTestEndpointStore()
	ctx := context.Background()

	if err := s.CreateEndpoint(ctx, EndpointData{
		EndpointName: "e1",
		JobID:        "job-aaaaaaaa",
		ModelS3Path:  "s3://b/models/job-aaaaaaaa/model.pkl",
	}); err != nil {
		t.Fatal(err)
	}

	ep, err := s.GetEndpoint(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Status != models.EndpointStatusCreating {
		t.Errorf("status = %s, want creating", ep.Status)
	}

	err = s.UpdateEndpointStatus(ctx, "e1", models.EndpointStatusCreating, models.EndpointStatusActive, map[string]any{
		"service_arn":         "arn:aws:ecs:us-east-1:1:service/inference-e1",
		"endpoint_url":        "http://alb.example.com/e1",
		"autoscaling_enabled": true,
	})
	if err != nil {
		t.Fatalf("UpdateEndpointStatus: %v", err)
	}

	ep, err = s.GetEndpoint(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Status != models.EndpointStatusActive {
		t.Errorf("status = %s, want active", ep.Status)
	}
	if !ep.AutoscalingEnabled {
		t.Error("autoscaling_enabled not set")
	}
	if ep.EndpointURL != "http://alb.example.com/e1" {
		t.Errorf("endpoint_url = %q", ep.EndpointURL)
	}

	if err := s.DeleteEndpoint(ctx, "e1"); err != nil {
		t.Fatal(err)
	}
	ep, err = s.GetEndpoint(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if ep != nil {
		t.Errorf("endpoint still present after delete: %+v", ep)
	}
}

func TestUpdateEndpointStatusRejectsInvalidTransition(t *testing.T) {
	s, _ := newTestEndpointStore()
	err := s.UpdateEndpointStatus(context.Background(), "e1", models.EndpointStatusActive, models.EndpointStatusCreating, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestDeleteEndpointAbsentIsNotError(t *testing.T) {
	s, _ := newTestEndpointStore()
	if err := s.DeleteEndpoint(context.Background(), "missing"); err != nil {
		t.Errorf("delete of absent endpoint: %v", err)
	}
}

func TestListEndpoints(t *testing.T) {
	s, _ := newTestEndpointStore()
	ctx := context.Background()

	for _, name := range []string{"e1", "e2"} {
		if err := s.CreateEndpoint(ctx, EndpointData{EndpointName: name, JobID: "job-aaaaaaaa"}); err != nil {
			t.Fatal(err)
		}
	}

	endpoints, err := s.ListEndpoints(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(endpoints) != 2 {
		t.Errorf("len = %d, want 2", len(endpoints))
	}
}
