// Package ingest consumes inbound device traffic from the broker.
//
// Devices (or the gateways fronting them) publish status reports,
// metric samples and health-check results to the ingest topics. This
// package decodes those messages, extracts the device id from the
// topic and the correlation id from the payload, and hands the result
// to the coordinator. It owns no business rules of its own.
package ingest
