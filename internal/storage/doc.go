// Package storage is the read-only client for the external device
// storage service.
//
// Device master data (names, types, locations) lives in a separate
// relational service reached over HTTP. This client fetches that data
// to enrich published events. It never writes, and its failures are
// expected to degrade gracefully to un-enriched events.
package storage
