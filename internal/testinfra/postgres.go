// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

//go:build integration

package testinfra

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the Postgres image used by integration tests.
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultPostgresPort is the container port Postgres listens on.
	DefaultPostgresPort = "5432/tcp"

	postgresUser     = "postrec"
	postgresPassword = "postrec"
	postgresDB       = "postrec"
)

// PostgresContainer is a running Postgres for tests.
type PostgresContainer struct {
	testcontainers.Container

	// URL is a postgres:// connection string for the container.
	URL string
}

// PostgresOption configures NewPostgresContainer.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	image        string
	initSQL      []string
	startTimeout time.Duration
	logger       log.Logger
}

// WithPostgresImage sets a custom image.
func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) {
		c.image = image
	}
}

// WithInitSQL runs statements, in order, once the server accepts connections.
func WithInitSQL(statements ...string) PostgresOption {
	return func(c *postgresConfig) {
		c.initSQL = append(c.initSQL, statements...)
	}
}

// WithPostgresStartTimeout bounds container startup.
func WithPostgresStartTimeout(timeout time.Duration) PostgresOption {
	return func(c *postgresConfig) {
		c.startTimeout = timeout
	}
}

// WithContainerLogger routes testcontainers output to logger.
func WithContainerLogger(logger log.Logger) PostgresOption {
	return func(c *postgresConfig) {
		c.logger = logger
	}
}

// NewPostgresContainer starts Postgres and runs any init SQL.
func NewPostgresContainer(ctx context.Context, opts ...PostgresOption) (*PostgresContainer, error) {
	cfg := &postgresConfig{
		image:        DefaultPostgresImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{DefaultPostgresPort},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDB,
			},
			// The entrypoint restarts the server once after init, so the
			// ready line appears twice.
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(DefaultPostgresPort),
			).WithDeadline(cfg.startTimeout),
		},
		Started: true,
		Logger:  cfg.logger,
	}

	container, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultPostgresPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("mapped port: %w", err)
	}

	pg := &PostgresContainer{
		Container: container,
		URL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			postgresUser, postgresPassword, host, port.Port(), postgresDB),
	}

	if len(cfg.initSQL) > 0 {
		if err := pg.Exec(ctx, cfg.initSQL...); err != nil {
			container.Terminate(ctx) //nolint:errcheck
			return nil, err
		}
	}
	return pg, nil
}

// Exec runs statements against the container database.
func (p *PostgresContainer) Exec(ctx context.Context, statements ...string) error {
	db, err := sql.Open("pgx", p.URL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init statement %d: %w", i, err)
		}
	}
	return nil
}
