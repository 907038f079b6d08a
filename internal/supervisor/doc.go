// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package supervisor provides process supervision for the sidecar using
suture v4.

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("streamforge")
	├── DataSupervisor ("data-layer")
	│   └── event-log retention pruner
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that a crash in the messaging layer does not
take down HTTP request handling, and vice versa. A failing service is
restarted in place; once the failure threshold is exceeded the owning
supervisor backs off before retrying.

Every supervised component implements suture.Service:

	Serve(ctx context.Context) error

A service runs until its context is canceled and returns ctx.Err() on a
clean stop; any other return counts as a failure. Supervisor events are
logged through sutureslog bridged onto the application logger.

Shutdown is driven by canceling the context passed to Serve. Services
that fail to stop within the configured timeout are listed by
UnstoppedServiceReport, which main logs before exiting.
*/
package supervisor
