// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package supervisor provides process supervision for Embytrakt using suture v4.

The supervisor tree manages every long-running service in the process with
automatic restart, failure isolation, and graceful shutdown.

# Overview

	RootSupervisor ("embytrakt")
	├── TraktSupervisor ("trakt-layer")
	│   └── TokenCheckService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A Trakt outage that makes the token check misbehave is restarted inside the
trakt layer and never interrupts webhook delivery.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddTraktService(services.NewTokenCheckService(transport, 6*time.Hour))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, 15*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Restart Policy

Defaults match suture's built-in values:
  - FailureThreshold: 5 failures before backoff
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog on the same zerolog pipeline as the rest of the process.

# See Also

  - internal/supervisor/services: service wrappers
  - github.com/thejerf/suture/v4: underlying supervision library
*/
package supervisor
