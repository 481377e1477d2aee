// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package model

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/postrec/internal/features"
)

// Linear is intercept + sum(weight * value) over float features plus a
// learned weight per category value over categorical features. Missing
// values and unseen categories contribute nothing.
type Linear struct {
	features   []FeatureSpec
	intercept  float64
	weights    []float64
	categories []map[string]float64
}

type linearArtifact struct {
	Features   []FeatureSpec                 `json:"features"`
	Intercept  float64                       `json:"intercept"`
	Weights    map[string]float64            `json:"weights"`
	Categories map[string]map[string]float64 `json:"categories"`
}

func parseLinear(data []byte) (*Linear, error) {
	var a linearArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode linear model: %w", err)
	}

	index, err := indexFeatures(a.Features)
	if err != nil {
		return nil, err
	}

	m := &Linear{
		features:   a.Features,
		intercept:  a.Intercept,
		weights:    make([]float64, len(a.Features)),
		categories: make([]map[string]float64, len(a.Features)),
	}

	for name, w := range a.Weights {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("weight for undeclared feature %q", name)
		}
		if a.Features[pos].Kind != FeatureFloat {
			return nil, fmt.Errorf("numeric weight for categorical feature %q", name)
		}
		m.weights[pos] = w
	}
	for name, table := range a.Categories {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("categories for undeclared feature %q", name)
		}
		if a.Features[pos].Kind != FeatureCategorical {
			return nil, fmt.Errorf("category weights for float feature %q", name)
		}
		m.categories[pos] = table
	}

	return m, nil
}

// FeatureNames implements Evaluator.
func (m *Linear) FeatureNames() []string {
	return featureNames(m.features)
}

// Raw implements Evaluator.
func (m *Linear) Raw(row []features.Value) (float64, error) {
	if err := checkRow(m.features, row); err != nil {
		return 0, err
	}

	sum := m.intercept
	for i, fs := range m.features {
		v := row[i]
		if v.Kind() == features.KindMissing {
			continue
		}
		if fs.Kind == FeatureCategorical {
			sum += m.categories[i][v.String()]
			continue
		}
		if f, ok := v.Float(); ok {
			sum += m.weights[i] * f
		}
	}
	return sum, nil
}
