// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package features

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/postrec/internal/logging"
	"github.com/tomtom215/postrec/internal/metrics"
	"github.com/tomtom215/postrec/internal/retry"
)

// DefaultChunkSize is the number of rows between progress reports and
// cancellation checks while streaming a table.
const DefaultChunkSize = 200000

// Querier is the part of *sql.DB the loader needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TableQuery describes how to read one feature table.
type TableQuery struct {
	// Name identifies the table in logs and errors, e.g. "users".
	Name string

	// Query returns the key column plus one column per feature.
	Query string

	// KeyColumn is the column holding the row ID.
	KeyColumn string
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Users     TableQuery
	Posts     TableQuery
	ChunkSize int
	Retry     retry.Policy
}

// Loader reads feature snapshots through database/sql. It works with any
// driver; the service uses pgx for Postgres and duckdb for parquet or CSV
// exports.
type Loader struct {
	db     Querier
	cfg    LoaderConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewLoader returns a Loader reading from db.
func NewLoader(db Querier, cfg LoaderConfig) *Loader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Loader{
		db:     db,
		cfg:    cfg,
		logger: logging.WithComponent("features"),
		now:    time.Now,
	}
}

// Load reads both tables, retrying each on failure, and returns a new
// snapshot. Errors in the query shape (missing key column, duplicate keys,
// colliding columns) are not retried.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := l.now()

	posts, err := l.loadWithRetry(ctx, l.cfg.Posts)
	if err != nil {
		return nil, err
	}
	users, err := l.loadWithRetry(ctx, l.cfg.Users)
	if err != nil {
		return nil, err
	}

	loadedAt := l.now()
	snap, err := NewSnapshot(users, posts, loadedAt)
	if err != nil {
		return nil, err
	}

	duration := loadedAt.Sub(start)
	metrics.RecordSnapshot(users.Len(), posts.Len(), loadedAt, duration)
	l.logger.Info().
		Int("users", users.Len()).
		Int("posts", posts.Len()).
		Dur("duration", duration).
		Msg("feature snapshot loaded")

	return snap, nil
}

func (l *Loader) loadWithRetry(ctx context.Context, q TableQuery) (*Table, error) {
	return retry.Do(ctx, l.cfg.Retry, "load_"+q.Name+"_features", func(ctx context.Context) (*Table, error) {
		return LoadTable(ctx, l.db, q, l.cfg.ChunkSize, l.logger)
	})
}

// LoadTable streams the rows of q into a new Table.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func LoadTable(ctx context.Context, db Querier, q TableQuery, chunkSize int, logger zerolog.Logger) (*Table, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	rows, err := db.QueryContext(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("query %s features: %w", q.Name, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read %s columns: %w", q.Name, err)
	}

	keyPos := -1
	columns := make([]string, 0, len(colTypes))
	decimal := make([]bool, 0, len(colTypes))
	for i, ct := range colTypes {
		if strings.EqualFold(ct.Name(), q.KeyColumn) {
			keyPos = i
			continue
		}
		columns = append(columns, ct.Name())
		decimal = append(decimal, isDecimalType(ct.DatabaseTypeName()))
	}
	if keyPos < 0 {
		return nil, retry.Permanent(fmt.Errorf("%s features: key column %q not in result", q.Name, q.KeyColumn))
	}

	table := NewTable(columns)
	raw := make([]any, len(colTypes))
	dest := make([]any, len(colTypes))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", q.Name, table.Len(), err)
		}

		key, err := toKey(raw[keyPos])
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("%s row %d: %w", q.Name, table.Len(), err))
		}

		values := make([]Value, 0, len(columns))
		for i, v := range raw {
			if i == keyPos {
				continue
			}
			values = append(values, toValue(v, decimal[len(values)]))
		}

		if err := table.Append(key, values); err != nil {
			return nil, retry.Permanent(fmt.Errorf("%s features: %w", q.Name, err))
		}

		if table.Len()%chunkSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			logger.Debug().Str("table", q.Name).Int("rows", table.Len()).Msg("feature chunk loaded")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", q.Name, err)
	}

	return table, nil
}

func isDecimalType(name string) bool {
	name = strings.ToUpper(name)
	return strings.HasPrefix(name, "NUMERIC") || strings.HasPrefix(name, "DECIMAL")
}

var errBadKey = errors.New("unsupported key value")

func toKey(v any) (int64, error) {
	switch k := v.(type) {
	case int64:
		return k, nil
	case int32:
		return int64(k), nil
	case int16:
		return int64(k), nil
	case int8:
		return int64(k), nil
	case int:
		return int64(k), nil
	case uint64:
		if k > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", errBadKey, k)
		}
		return int64(k), nil
	case uint32:
		return int64(k), nil
	case uint16:
		return int64(k), nil
	case uint8:
		return int64(k), nil
	case string:
		return strconv.ParseInt(k, 10, 64)
	case []byte:
		return strconv.ParseInt(string(k), 10, 64)
	case nil:
		return 0, fmt.Errorf("%w: NULL", errBadKey)
	default:
		return 0, fmt.Errorf("%w: %T", errBadKey, v)
	}
}

// floater matches driver decimal types such as duckdb.Decimal.
type floater interface {
	Float64() float64
}

func toValue(v any, decimal bool) Value {
	switch x := v.(type) {
	case nil:
		return Missing()
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case bool:
		if x {
			return Number(1)
		}
		return Number(0)
	case string:
		if decimal {
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return Number(f)
			}
		}
		return Category(x)
	case []byte:
		return toValue(string(x), decimal)
	case time.Time:
		return Number(float64(x.Unix()))
	case floater:
		return Number(x.Float64())
	default:
		return Category(fmt.Sprint(x))
	}
}
