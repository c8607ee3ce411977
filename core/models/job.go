package models

// Job represents a training job tracked by the platform
type Job struct {
	JobID           string         `json:"job_id"`
	JobName         string         `json:"job_name"`
	Image           string         `json:"image"`
	S3Input         string         `json:"s3_input"`
	S3Output        string         `json:"s3_output"`
	Hyperparameters map[string]any `json:"hyperparameters,omitempty"`
	Status          JobStatus      `json:"status"`
	TaskARN         string         `json:"task_arn,omitempty"`
	CreatedAt       int64          `json:"created_at"`
	Metrics         map[string]any `json:"metrics,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// jobTransitions is the set of allowed status transitions. A job whose launch
// never succeeds stays pending; completed and failed are terminal.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {JobStatusRunning, JobStatusFailed},
	JobStatusRunning: {JobStatusCompleted, JobStatusFailed},
}

// ValidJobTransition reports whether a job may move from one status to another.
func ValidJobTransition(from, to JobStatus) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
