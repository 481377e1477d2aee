// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

/*
Package supervisor runs the long-lived parts of the service under a
suture/v4 supervisor tree.

Tree layout:

	postrec (root)
	├── data-layer
	│   └── snapshot-refresh   (only when features.refresh_interval > 0)
	└── api-layer
	    └── http-server

A crash in the data layer restarts the refresh loop without touching the
HTTP server, which keeps serving the last good snapshot.

Supervisor events go through sutureslog to an slog.Logger; cmd/server passes
one backed by zerolog (logging.NewSlogHandler) so all output shares one
format.

Usage:

	logger := slog.New(logging.NewSlogHandler(logging.Logger()))
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewSnapshotRefreshService(loader, store, refreshCfg))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
