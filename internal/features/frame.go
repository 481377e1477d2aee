// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package features

import "time"

// Frame is the scoring frame of one recommendation call: the requesting
// user's row joined with every post row, plus day_of_week and hour.
//
// A Frame is a view over the snapshot. Rows are not copied until Select
// materializes the columns a model asks for. Frames are never modified;
// Exclude returns a new one.
type Frame struct {
	snap    *Snapshot
	found   bool
	user    []Value
	rows    []int // indexes into snap.Posts
	derived [2]Value
}

// Build returns the scoring frame for userID at time at.
//
// A user missing from the snapshot is a cold start and yields an empty
// frame, not an error. Rows follow the post snapshot order. day_of_week
// counts from Monday = 0; hour is 0-23. Both are read in at's location.
func Build(userID int64, snap *Snapshot, at time.Time) *Frame {
	if snap == nil {
		return &Frame{}
	}

	user, ok := snap.Users.Lookup(userID)
	if !ok {
		return &Frame{snap: snap}
	}

	rows := make([]int, snap.Posts.Len())
	for i := range rows {
		rows[i] = i
	}

	return &Frame{
		snap:  snap,
		found: true,
		user:  user,
		rows:  rows,
		derived: [2]Value{
			Number(float64((int(at.Weekday()) + 6) % 7)),
			Number(float64(at.Hour())),
		},
	}
}

// HasUser reports whether the user was found in the snapshot.
func (f *Frame) HasUser() bool {
	return f.found
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Columns returns the frame's column names: post features, user features,
// day_of_week, hour.
func (f *Frame) Columns() []string {
	if f.snap == nil {
		return nil
	}
	cols := make([]string, len(f.snap.frameColumns))
	copy(cols, f.snap.frameColumns)
	return cols
}

// PostIDs returns the post ID of every row, in row order.
func (f *Frame) PostIDs() []int64 {
	ids := make([]int64, len(f.rows))
	for i, r := range f.rows {
		ids[i] = f.snap.Posts.Key(r)
	}
	return ids
}

// Exclude returns a frame without the rows whose post ID is in postIDs.
// Row order is preserved.
func (f *Frame) Exclude(postIDs map[int64]struct{}) *Frame {
	if len(postIDs) == 0 || len(f.rows) == 0 {
		return f
	}

	kept := make([]int, 0, len(f.rows))
	for _, r := range f.rows {
		if _, liked := postIDs[f.snap.Posts.Key(r)]; !liked {
			kept = append(kept, r)
		}
	}

	out := *f
	out.rows = kept
	return &out
}

// Select materializes the given columns for every row, in the order given.
// If any column is absent it returns nil and the missing names.
func (f *Frame) Select(columns []string) ([][]Value, []string) {
	var missing []string
	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := -1, false
		if f.snap != nil {
			pos, ok = f.snap.frameIndex[c]
		}
		if !ok {
			missing = append(missing, c)
			continue
		}
		positions[i] = pos
	}
	if len(missing) > 0 {
		return nil, missing
	}

	nPost := len(f.snap.Posts.columns)
	nUser := len(f.snap.Users.columns)

	out := make([][]Value, len(f.rows))
	for i, r := range f.rows {
		post := f.snap.Posts.rows[r]
		row := make([]Value, len(positions))
		for j, pos := range positions {
			switch {
			case pos < nPost:
				row[j] = post[pos]
			case pos < nPost+nUser:
				row[j] = f.user[pos-nPost]
			default:
				row[j] = f.derived[pos-nPost-nUser]
			}
		}
		out[i] = row
	}
	return out, nil
}
