// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package features

import "sync/atomic"

// Store holds the active snapshot. Readers get whichever snapshot was
// current when they called Current and keep using it for the whole request;
// a refresh swaps the pointer and never touches the old snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a Store serving snap. snap may be nil until the first load.
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	if snap != nil {
		s.current.Store(snap)
	}
	return s
}

// Current returns the active snapshot, or nil if none has been installed.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Swap installs snap and returns the snapshot it replaced.
func (s *Store) Swap(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}

// Ready reports whether a snapshot has been installed.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}
