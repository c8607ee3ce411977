package training

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Model is the serialized training artifact. It is written as JSON under the
// model.pkl key so the inference server and artifact-existence checks share
// one well-known path.
type Model struct {
	JobID          string             `json:"job_id"`
	TaskType       string             `json:"task_type"`
	Algorithm      string             `json:"algorithm"`
	FeatureColumns []string           `json:"feature_columns"`
	TargetColumn   string             `json:"target_column"`
	Prediction     any                `json:"prediction"`
	Metrics        map[string]float64 `json:"metrics"`
	TrainedAt      int64              `json:"trained_at"`
}

// Trainer fits a model to a dataset. The training algorithm is an external
// collaborator: the pipeline only needs something that turns a dataset and
// hyperparameters into an artifact.
type Trainer interface {
	Train(ctx context.Context, ds *Dataset, hyperparams map[string]any) (*Model, error)
}

// BaselineTrainer is the bundled reference trainer: a constant predictor
// using the target mean (regression) or mode (classification). It exists so
// the platform runs end to end without a real training image.
type BaselineTrainer struct{}

func (BaselineTrainer) Train(_ context.Context, ds *Dataset, hyperparams map[string]any) (*Model, error) {
	taskType, _ := hyperparams["task_type"].(string)

	numeric, isNumeric := ds.NumericTargets()
	switch taskType {
	case "":
		if isNumeric {
			taskType = "regression"
		} else {
			taskType = "classification"
		}
	case "regression":
		if !isNumeric {
			return nil, fmt.Errorf("task_type is regression but target column %q is not numeric", ds.TargetColumn())
		}
	case "classification":
	default:
		return nil, fmt.Errorf("invalid task_type: %s, must be 'classification' or 'regression'", taskType)
	}

	model := &Model{
		TaskType:       taskType,
		Algorithm:      "baseline",
		FeatureColumns: ds.FeatureColumns(),
		TargetColumn:   ds.TargetColumn(),
		TrainedAt:      time.Now().Unix(),
	}

	if taskType == "regression" {
		mean := 0.0
		for _, v := range numeric {
			mean += v
		}
		mean /= float64(len(numeric))

		var mse, mae float64
		for _, v := range numeric {
			mse += (v - mean) * (v - mean)
			mae += math.Abs(v - mean)
		}
		n := float64(len(numeric))
		model.Prediction = mean
		model.Metrics = map[string]float64{
			"mse": mse / n,
			"mae": mae / n,
			// A mean predictor explains none of the variance.
			"r2_score": 0.0,
		}
		return model, nil
	}

	counts := map[string]int{}
	mode, best := "", 0
	for _, t := range ds.Targets() {
		counts[t]++
		if counts[t] > best {
			mode, best = t, counts[t]
		}
	}
	model.Prediction = mode
	model.Metrics = map[string]float64{
		"accuracy": float64(best) / float64(len(ds.Rows)),
	}
	return model, nil
}
