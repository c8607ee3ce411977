package models

// Endpoint represents a persistent inference endpoint
type Endpoint struct {
	EndpointName       string         `json:"endpoint_name"`
	JobID              string         `json:"job_id"`
	ModelS3Path        string         `json:"model_s3_path"`
	Status             EndpointStatus `json:"status"`
	ServiceARN         string         `json:"service_arn,omitempty"`
	EndpointURL        string         `json:"endpoint_url,omitempty"`
	AutoscalingEnabled bool           `json:"autoscaling_enabled"`
	TargetGroupARN     string         `json:"target_group_arn,omitempty"`
	TaskDefinition     string         `json:"task_definition,omitempty"`
	CreatedAt          int64          `json:"created_at"`
}

// EndpointStatus represents the current status of an endpoint
type EndpointStatus string

const (
	EndpointStatusCreating EndpointStatus = "creating"
	EndpointStatusActive   EndpointStatus = "active"
	EndpointStatusFailed   EndpointStatus = "failed"
)

var endpointTransitions = map[EndpointStatus][]EndpointStatus{
	EndpointStatusCreating: {EndpointStatusActive, EndpointStatusFailed},
}

// ValidEndpointTransition reports whether an endpoint may move from one status
// to another. Endpoints leave the table by deletion, not by a status change.
func ValidEndpointTransition(from, to EndpointStatus) bool {
	for _, next := range endpointTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
