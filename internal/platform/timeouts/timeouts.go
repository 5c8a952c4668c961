// Package timeouts defines shared timeout constants used across the engine.
// Centralizing these values prevents drift between components and makes the
// durations discoverable.
package timeouts

import "time"

// ComposeWrite caps how long a single compose waits on the durable write.
const ComposeWrite = 5 * time.Second

// LeaseRenew is how often the authority lease is renewed while held.
const LeaseRenew = 10 * time.Second

// LeaseTTL is how long an authority lease remains valid without renewal.
const LeaseTTL = 30 * time.Second

// Shutdown limits how long the runtime waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
