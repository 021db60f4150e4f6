// Package event defines the domain event model for device state changes.
//
// Every observable fact about a device (a status transition, a breached
// metric threshold, a health-check outcome, a triggered alert) is
// expressed as an Event envelope with a typed payload. Events are built
// through a Builder that validates payload shape against the event type
// and composes the ordered tag list downstream consumers filter on.
//
// The package has no dependencies on transport or storage; publishing
// is the publisher package's concern.
package event
