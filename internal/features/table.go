// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package features

import (
	"errors"
	"fmt"
	"time"
)

// Derived column names appended to every scoring frame.
const (
	ColumnDayOfWeek = "day_of_week"
	ColumnHour      = "hour"
)

var (
	// ErrDuplicateKey is returned when a table already holds a row for a key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrColumnCollision is returned when user and post tables share a column.
	ErrColumnCollision = errors.New("column collision")
)

// Table is a set of feature rows keyed by an int64 ID.
// Rows keep the order they were appended in. A Table is built by one
// goroutine and must not be appended to once it is part of a Snapshot.
type Table struct {
	columns []string
	keys    []int64
	rows    [][]Value
	index   map[int64]int
}

// NewTable returns an empty table with the given feature columns.
// The key column is not part of columns.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		columns: cols,
		index:   make(map[int64]int),
	}
}

// Append adds a row. values must have one entry per column.
func (t *Table) Append(key int64, values []Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row %d has %d values, table has %d columns", key, len(values), len(t.columns))
	}
	if _, exists := t.index[key]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateKey, key)
	}
	t.index[key] = len(t.rows)
	t.keys = append(t.keys, key)
	t.rows = append(t.rows, values)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns a copy of the feature column names.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Lookup returns the row for key.
func (t *Table) Lookup(key int64) ([]Value, bool) {
	i, ok := t.index[key]
	if !ok {
		return nil, false
	}
	return t.rows[i], true
}

// Key returns the key of row i.
func (t *Table) Key(i int) int64 {
	return t.keys[i]
}

// Row returns row i.
func (t *Table) Row(i int) []Value {
	return t.rows[i]
}

// Snapshot pairs the user and post tables loaded together.
type Snapshot struct {
	Users    *Table
	Posts    *Table
	LoadedAt time.Time

	// frame layout: post columns, then user columns, then derived columns
	frameColumns []string
	frameIndex   map[string]int
}

// NewSnapshot checks that the two tables can be joined without ambiguity.
// Column names must be unique across both tables and must not shadow the
// derived time columns.
func NewSnapshot(users, posts *Table, loadedAt time.Time) (*Snapshot, error) {
	if users == nil || posts == nil {
		return nil, errors.New("snapshot requires both user and post tables")
	}

	seen := map[string]string{
		ColumnDayOfWeek: "derived",
		ColumnHour:      "derived",
	}
	check := func(table string, cols []string) error {
		for _, c := range cols {
			if owner, ok := seen[c]; ok {
				return fmt.Errorf("%w: %q in %s table already defined by %s", ErrColumnCollision, c, table, owner)
			}
			seen[c] = table
		}
		return nil
	}
	if err := check("post", posts.columns); err != nil {
		return nil, err
	}
	if err := check("user", users.columns); err != nil {
		return nil, err
	}

	frameColumns := make([]string, 0, len(posts.columns)+len(users.columns)+2)
	frameColumns = append(frameColumns, posts.columns...)
	frameColumns = append(frameColumns, users.columns...)
	frameColumns = append(frameColumns, ColumnDayOfWeek, ColumnHour)

	frameIndex := make(map[string]int, len(frameColumns))
	for i, c := range frameColumns {
		frameIndex[c] = i
	}

	return &Snapshot{
		Users:        users,
		Posts:        posts,
		LoadedAt:     loadedAt,
		frameColumns: frameColumns,
		frameIndex:   frameIndex,
	}, nil
}
