// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer and waiting for health.
const GRPCDial = 5 * time.Second

// GRPCRequest caps the time allowed for a single MCP tool call against the ledger.
const GRPCRequest = 10 * time.Second

// ReadHeader limits how long the MCP HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// SQLiteBusy is the busy timeout handed to SQLite connections.
const SQLiteBusy = 5 * time.Second
