// Package publisher delivers domain events to the message broker.
//
// The core guarantee is per-device FIFO: events for a device are
// published in the order they were submitted, even when earlier events
// are being retried. Each device gets a dedicated worker goroutine and
// queue, created on demand and evicted when idle, so ordering never
// couples unrelated devices to each other's failures.
//
// Transient broker failures are retried with bounded exponential
// backoff. An event that exhausts its retries is logged in full and
// dropped rather than blocking the device's queue forever.
//
// Alongside the ordered event stream, StatusBoard mirrors each device's
// last committed status onto a retained topic for late subscribers.
package publisher
