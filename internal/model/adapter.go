// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/postrec/internal/experiment"
	"github.com/tomtom215/postrec/internal/features"
)

// Output selects what Score returns for a model.
type Output string

const (
	// OutputRaw returns the model margin unchanged.
	OutputRaw Output = "raw"
	// OutputProbability returns sigmoid(margin).
	OutputProbability Output = "probability"
)

// ParseOutput accepts "raw" or "probability" (case-insensitive). Empty
// means probability.
func ParseOutput(s string) (Output, error) {
	switch Output(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputProbability:
		return OutputProbability, nil
	case OutputRaw:
		return OutputRaw, nil
	default:
		return "", fmt.Errorf("unknown model output %q (want raw or probability)", s)
	}
}

// InputError is returned when a frame lacks columns the model needs.
type InputError struct {
	Model   string
	Missing []string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("model %s: missing input columns: %s", e.Model, strings.Join(e.Missing, ", "))
}

// Adapter binds an evaluator to its output convention. Adapters are
// read-only after construction and safe for concurrent use.
type Adapter struct {
	name      string
	evaluator Evaluator
	output    Output
}

// NewAdapter returns an adapter named name.
func NewAdapter(name string, evaluator Evaluator, output Output) *Adapter {
	if output == "" {
		output = OutputProbability
	}
	return &Adapter{name: name, evaluator: evaluator, output: output}
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// Output returns the output convention.
func (a *Adapter) Output() Output { return a.output }

// FeatureNames returns the columns the model reads, in order.
func (a *Adapter) FeatureNames() []string {
	return a.evaluator.FeatureNames()
}

// Score returns one score per row, in row order.
func (a *Adapter) Score(rows [][]features.Value) ([]float64, error) {
	scores := make([]float64, len(rows))
	for i, row := range rows {
		raw, err := a.evaluator.Raw(row)
		if err != nil {
			return nil, fmt.Errorf("model %s: row %d: %w", a.name, i, err)
		}
		if a.output == OutputProbability {
			raw = sigmoid(raw)
		}
		scores[i] = raw
	}
	return scores, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Inputs selects the adapter's columns from frame in model order.
func Inputs(frame *features.Frame, a *Adapter) ([][]features.Value, error) {
	rows, missing := frame.Select(a.FeatureNames())
	if len(missing) > 0 {
		return nil, &InputError{Model: a.name, Missing: missing}
	}
	return rows, nil
}

// Set holds the model for each experiment group.
type Set struct {
	Control *Adapter
	Test    *Adapter
}

// For returns the adapter serving group.
func (s *Set) For(group experiment.Group) (*Adapter, error) {
	switch group {
	case experiment.Control:
		if s.Control != nil {
			return s.Control, nil
		}
	case experiment.Test:
		if s.Test != nil {
			return s.Test, nil
		}
	default:
		return nil, fmt.Errorf("unknown experiment group %q", group)
	}
	return nil, fmt.Errorf("no model loaded for group %s", group)
}

// SetConfig locates both artifacts.
type SetConfig struct {
	ControlPath   string
	ControlOutput Output
	TestPath      string
	TestOutput    Output
}

// LoadSet loads both group models.
func LoadSet(cfg SetConfig) (*Set, error) {
	control, err := Load(cfg.ControlPath)
	if err != nil {
		return nil, fmt.Errorf("control model: %w", err)
	}
	test, err := Load(cfg.TestPath)
	if err != nil {
		return nil, fmt.Errorf("test model: %w", err)
	}
	return &Set{
		Control: NewAdapter(string(experiment.Control), control, cfg.ControlOutput),
		Test:    NewAdapter(string(experiment.Test), test, cfg.TestOutput),
	}, nil
}
