// Package alert evaluates metric samples against configured threshold
// rules.
//
// A breached rule yields a threshold-exceeded event, and when the rule
// is flagged alert-worthy, an alert-triggered event as well. Duplicate
// breaches for the same device, metric and severity are suppressed for
// the rule's cooldown window through an atomic claim on the state
// cache.
package alert
