// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package features holds the precomputed user and post feature snapshots and
// builds the per-request scoring frame from them.
//
// Snapshots are loaded once (and optionally refreshed) and are never mutated
// after they are installed, so request handlers read them without locks.
package features

import (
	"math"
	"strconv"
)

// Kind is the type of a feature cell.
type Kind uint8

const (
	// KindMissing is a NULL cell.
	KindMissing Kind = iota
	// KindNumber is a numeric cell.
	KindNumber
	// KindCategory is a string cell.
	KindCategory
)

// Value is one feature cell.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Category returns a categorical cell.
func Category(s string) Value {
	return Value{kind: KindCategory, str: s}
}

// Missing returns a NULL cell.
func Missing() Value {
	return Value{}
}

// Kind returns the cell type.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the numeric value. Missing and categorical cells yield NaN
// and false.
func (v Value) Float() (float64, bool) {
	if v.kind == KindNumber {
		return v.num, true
	}
	return math.NaN(), false
}

// String returns the category, or the shortest decimal form of a number.
// Missing cells render as "".
func (v Value) String() string {
	switch v.kind {
	case KindCategory:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}
