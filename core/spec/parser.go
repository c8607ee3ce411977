package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// JobSpec represents the YAML training-job specification accepted by the CLI.
type JobSpec struct {
	Job JobSpecJob `yaml:"job"`
}

// JobSpecJob represents the job section of the spec
type JobSpecJob struct {
	Name            string         `yaml:"name"`
	Image           string         `yaml:"image"`
	InputData       string         `yaml:"input_data"`
	Hyperparameters map[string]any `yaml:"hyperparameters,omitempty"`
}

// ParseJobSpec parses a YAML job specification
func ParseJobSpec(specYAML []byte) (*JobSpec, error) {
	var spec JobSpec
	if err := yaml.Unmarshal(specYAML, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if spec.Job.Name == "" {
		return nil, fmt.Errorf("job.name is required")
	}
	if spec.Job.Image == "" {
		return nil, fmt.Errorf("job.image is required")
	}
	if spec.Job.InputData == "" {
		return nil, fmt.Errorf("job.input_data is required")
	}

	return &spec, nil
}

// LoadJobSpec reads and parses a job specification file
func LoadJobSpec(path string) (*JobSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return ParseJobSpec(raw)
}
