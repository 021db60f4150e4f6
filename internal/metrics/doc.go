// Package metrics records device metric samples to the time-series
// backend.
//
// The design principle is that metrics are best-effort telemetry: a
// slow or unavailable backend must never block or fail the device
// operation that produced the sample. Record validates and enqueues;
// a background worker flushes with bounded exponential backoff and
// logs (rather than returns) any sample it ultimately has to drop.
package metrics
