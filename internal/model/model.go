// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package model loads the trained ranking models and scores scoring frames
// with them.
//
// A model artifact is a JSON file produced by the offline training job. Two
// kinds are understood:
//
//	{"type": "oblivious_trees", "features": [...], "trees": [...], "scale": 1, "bias": 0}
//	{"type": "linear", "features": [...], "intercept": 0, "weights": {...}, "categories": {...}}
//
// Both evaluate to a raw margin per row. Whether a group uses that margin
// directly or its sigmoid (the positive-class probability) is decided by
// configuration, see Output.
package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/postrec/internal/features"
)

// Evaluator computes the raw model margin for one row.
type Evaluator interface {
	// FeatureNames lists the columns the model reads, in the order Raw
	// expects them.
	FeatureNames() []string

	// Raw evaluates one row laid out as FeatureNames.
	Raw(row []features.Value) (float64, error)
}

// FeatureKind is how a model reads a feature column.
type FeatureKind string

const (
	// FeatureFloat columns are compared numerically.
	FeatureFloat FeatureKind = "float"
	// FeatureCategorical columns are compared as strings.
	FeatureCategorical FeatureKind = "categorical"
)

// FeatureSpec declares one model input.
type FeatureSpec struct {
	Name string      `json:"name"`
	Kind FeatureKind `json:"kind"`
}

// ErrUnknownModelType is returned for artifacts with an unrecognized type.
var ErrUnknownModelType = errors.New("unknown model type")

// ErrFeatureKind is returned by Raw when a float feature holds a category.
// Numbers are accepted for categorical features and compared by their
// decimal form.
var ErrFeatureKind = errors.New("feature kind mismatch")

// checkRow validates row against the declared features.
func checkRow(specs []FeatureSpec, row []features.Value) error {
	if len(row) != len(specs) {
		return fmt.Errorf("row has %d values, model expects %d", len(row), len(specs))
	}
	for i, fs := range specs {
		if fs.Kind == FeatureFloat && row[i].Kind() == features.KindCategory {
			return fmt.Errorf("%w: %s is float, got category %q", ErrFeatureKind, fs.Name, row[i].String())
		}
	}
	return nil
}

// Load reads and validates the model artifact at path.
func Load(path string) (Evaluator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	eval, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return eval, nil
}

// Parse decodes a model artifact.
func Parse(data []byte) (Evaluator, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	switch strings.ToLower(header.Type) {
	case "oblivious_trees", "catboost":
		return parseTreeEnsemble(data)
	case "linear", "logistic":
		return parseLinear(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, header.Type)
	}
}

// indexFeatures validates specs and returns name -> position.
func indexFeatures(specs []FeatureSpec) (map[string]int, error) {
	if len(specs) == 0 {
		return nil, errors.New("model declares no features")
	}
	index := make(map[string]int, len(specs))
	for i, f := range specs {
		if f.Name == "" {
			return nil, fmt.Errorf("feature %d has no name", i)
		}
		if f.Kind != FeatureFloat && f.Kind != FeatureCategorical {
			return nil, fmt.Errorf("feature %q has unknown kind %q", f.Name, f.Kind)
		}
		if _, dup := index[f.Name]; dup {
			return nil, fmt.Errorf("feature %q declared twice", f.Name)
		}
		index[f.Name] = i
	}
	return index, nil
}

func featureNames(specs []FeatureSpec) []string {
	names := make([]string, len(specs))
	for i, f := range specs {
		names[i] = f.Name
	}
	return names
}
