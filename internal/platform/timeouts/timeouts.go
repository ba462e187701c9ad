// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// HealthWait caps how long a client waits for the daemon health check.
const HealthWait = 10 * time.Second

// Request caps a single HTTP call from a client to the dice daemon.
const Request = 5 * time.Second

// Notify caps one outbound roll notification.
const Notify = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
