package training

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Dataset is a loaded CSV training set. The target column defaults to the
// last column unless the hyperparameters name one.
type Dataset struct {
	Columns []string
	Rows    [][]string
	target  int
}

// LoadCSV reads a training dataset from a local CSV file.
func LoadCSV(path, targetColumn string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	columns := records[0]
	target := len(columns) - 1
	if targetColumn != "" {
		target = -1
		for i, c := range columns {
			if c == targetColumn {
				target = i
				break
			}
		}
		if target < 0 {
			return nil, fmt.Errorf("target column %q not found in CSV, available columns: %v", targetColumn, columns)
		}
	}

	return &Dataset{
		Columns: columns,
		Rows:    records[1:],
		target:  target,
	}, nil
}

// TargetColumn returns the name of the target column.
func (d *Dataset) TargetColumn() string {
	return d.Columns[d.target]
}

// FeatureColumns returns the names of the non-target columns.
func (d *Dataset) FeatureColumns() []string {
	features := make([]string, 0, len(d.Columns)-1)
	for i, c := range d.Columns {
		if i != d.target {
			features = append(features, c)
		}
	}
	return features
}

// Targets returns the target column values row by row.
func (d *Dataset) Targets() []string {
	targets := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		if d.target < len(row) {
			targets[i] = row[d.target]
		}
	}
	return targets
}

// NumericTargets parses the target column as float64s. The second return
// reports whether every value parsed, which decides regression vs
// classification when the task type is not given.
func (d *Dataset) NumericTargets() ([]float64, bool) {
	targets := d.Targets()
	out := make([]float64, len(targets))
	for i, t := range targets {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
