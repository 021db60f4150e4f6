// Package coordinator orchestrates device state across the cache, the
// metrics store, the storage service and the event bus.
//
// It is the only writer of device status. Transition implements the
// status lifecycle with an idempotent no-op short-circuit; RecordMetric
// routes samples to the metrics writer and the alert evaluator;
// RecordHealthCheck records health outcomes and drives the
// degraded/online transitions they imply.
//
// The consistency model is: the cache write is the commit point. A
// transition that fails before the cache write never happened; after
// it, downstream publication and persistence are asynchronous and their
// failures are reported, not rolled back.
package coordinator
