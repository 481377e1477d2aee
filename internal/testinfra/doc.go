// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package testinfra starts real dependencies in Docker for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/database/...
//
// # Postgres Container
//
//	func TestStoreAgainstPostgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx,
//	        testinfra.WithInitSQL("CREATE TABLE post (id BIGINT PRIMARY KEY, text TEXT, topic TEXT)"),
//	    )
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.Open(ctx, database.Config{Driver: database.DriverPostgres, URL: pg.URL})
//	    // ...
//	}
//
// Tests skip when Docker is unavailable.
package testinfra
