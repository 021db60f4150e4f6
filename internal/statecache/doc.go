// Package statecache provides the Redis-backed device state store.
//
// It holds the authoritative in-flight view of each device's status and
// the alert cooldown records used for duplicate suppression. Status
// writes are atomic read-modify-write operations built on Redis
// optimistic transactions, so concurrent status transitions for the
// same device never lose updates and each writer learns exactly which
// status it replaced.
//
// Alert cooldowns use SET NX with a TTL: the key doubles as both the
// dedup check and the expiry timer, with no sweeper goroutine needed.
package statecache
