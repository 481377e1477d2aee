// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package experiment assigns users to the arms of the A/B experiment.
//
// Assignment is a pure function of the user ID, a salt and a threshold, so a
// user lands in the same group on every replica and across restarts for as
// long as the salt and threshold stay the same.
package experiment

import (
	"crypto/md5" //nolint:gosec // bucketing only, not a security boundary
	"fmt"
	"math/big"
	"strconv"
)

// Group is an experiment arm.
type Group string

const (
	// Control is served by the control model.
	Control Group = "control"

	// Test is served by the test model.
	Test Group = "test"
)

// String implements fmt.Stringer.
func (g Group) String() string {
	return string(g)
}

// Valid reports whether g is one of the two known arms.
func (g Group) Valid() bool {
	return g == Control || g == Test
}

var hundred = big.NewInt(100)

// Bucket returns the 0-99 bucket of a user for the given salt.
// The MD5 digest of decimal(userID)+salt is read as a big-endian unsigned
// integer, which is the same value as parsing its hex form.
func Bucket(userID int64, salt string) int {
	sum := md5.Sum([]byte(strconv.FormatInt(userID, 10) + salt)) //nolint:gosec // bucketing only
	n := new(big.Int).SetBytes(sum[:])
	return int(n.Mod(n, hundred).Int64())
}

// Assign returns Control when the user's bucket is strictly below
// groupAPercentage and Test otherwise. A percentage of 100 or more sends
// everyone to Control; 0 or less sends everyone to Test.
func Assign(userID int64, salt string, groupAPercentage int) Group {
	if Bucket(userID, salt) < groupAPercentage {
		return Control
	}
	return Test
}

// Config controls experiment assignment.
type Config struct {
	// Enabled turns the split on. When false every user is served by Control.
	Enabled bool

	// Salt is mixed into the hash. Changing it reshuffles all users.
	Salt string

	// GroupAPercentage is the share of users, 0-100, assigned to Control.
	GroupAPercentage int
}

// Assigner applies a fixed experiment configuration.
// It holds no mutable state and is safe for concurrent use.
type Assigner struct {
	cfg Config
}

// NewAssigner validates cfg and returns an Assigner.
func NewAssigner(cfg Config) (*Assigner, error) {
	if cfg.GroupAPercentage < 0 || cfg.GroupAPercentage > 100 {
		return nil, fmt.Errorf("group A percentage must be between 0 and 100, got %d", cfg.GroupAPercentage)
	}
	return &Assigner{cfg: cfg}, nil
}

// Assign returns the group for userID.
func (a *Assigner) Assign(userID int64) Group {
	if !a.cfg.Enabled {
		return Control
	}
	return Assign(userID, a.cfg.Salt, a.cfg.GroupAPercentage)
}

// Config returns the configuration the Assigner was built with.
func (a *Assigner) Config() Config {
	return a.cfg
}
