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

// TreeEnsemble is a sum of oblivious decision trees, the model family
// CatBoost trains. Every level of an oblivious tree applies the same split,
// so a tree of depth d is d splits plus 2^d leaf values, and the leaf index
// is the bit vector of split outcomes with split 0 as the lowest bit.
type TreeEnsemble struct {
	features []FeatureSpec
	trees    []obliviousTree
	scale    float64
	bias     float64
}

type obliviousTree struct {
	splits []split
	leaves []float64
}

// split is true when a float feature is strictly greater than border, or
// when a categorical feature equals value. A missing float compares false.
type split struct {
	feature     int
	categorical bool
	border      float64
	value       string
}

type treeArtifact struct {
	Features []FeatureSpec `json:"features"`
	Trees    []struct {
		Splits []struct {
			Feature string   `json:"feature"`
			Border  *float64 `json:"border,omitempty"`
			Equals  *string  `json:"equals,omitempty"`
		} `json:"splits"`
		LeafValues []float64 `json:"leaf_values"`
	} `json:"trees"`
	Scale *float64 `json:"scale,omitempty"`
	Bias  float64  `json:"bias"`
}

func parseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var a treeArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode tree ensemble: %w", err)
	}

	index, err := indexFeatures(a.Features)
	if err != nil {
		return nil, err
	}

	m := &TreeEnsemble{
		features: a.Features,
		trees:    make([]obliviousTree, 0, len(a.Trees)),
		scale:    1,
		bias:     a.Bias,
	}
	if a.Scale != nil {
		m.scale = *a.Scale
	}

	for ti, t := range a.Trees {
		if len(t.Splits) > 30 {
			return nil, fmt.Errorf("tree %d: depth %d is too deep", ti, len(t.Splits))
		}
		if want := 1 << len(t.Splits); len(t.LeafValues) != want {
			return nil, fmt.Errorf("tree %d: %d leaf values, want %d for depth %d", ti, len(t.LeafValues), want, len(t.Splits))
		}

		tree := obliviousTree{splits: make([]split, len(t.Splits)), leaves: t.LeafValues}
		for si, s := range t.Splits {
			pos, ok := index[s.Feature]
			if !ok {
				return nil, fmt.Errorf("tree %d split %d: undeclared feature %q", ti, si, s.Feature)
			}
			kind := a.Features[pos].Kind
			switch {
			case kind == FeatureFloat && s.Border != nil && s.Equals == nil:
				tree.splits[si] = split{feature: pos, border: *s.Border}
			case kind == FeatureCategorical && s.Equals != nil && s.Border == nil:
				tree.splits[si] = split{feature: pos, categorical: true, value: *s.Equals}
			default:
				return nil, fmt.Errorf("tree %d split %d: feature %q (%s) needs exactly one of border (float) or equals (categorical)", ti, si, s.Feature, kind)
			}
		}
		m.trees = append(m.trees, tree)
	}

	return m, nil
}

// FeatureNames implements Evaluator.
func (m *TreeEnsemble) FeatureNames() []string {
	return featureNames(m.features)
}

// Trees returns the number of trees.
func (m *TreeEnsemble) Trees() int {
	return len(m.trees)
}

// Raw implements Evaluator.
func (m *TreeEnsemble) Raw(row []features.Value) (float64, error) {
	if err := checkRow(m.features, row); err != nil {
		return 0, err
	}

	var sum float64
	for _, t := range m.trees {
		leaf := 0
		for bit, s := range t.splits {
			if s.eval(row[s.feature]) {
				leaf |= 1 << bit
			}
		}
		sum += t.leaves[leaf]
	}
	return m.scale*sum + m.bias, nil
}

func (s split) eval(v features.Value) bool {
	if s.categorical {
		return v.Kind() != features.KindMissing && v.String() == s.value
	}
	f, ok := v.Float()
	return ok && f > s.border
}
