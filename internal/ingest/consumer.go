package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/device-pulse/internal/event"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/infrastructure/mqtt"
	"github.com/nerrad567/device-pulse/internal/metrics"
)

// handleTimeout bounds the processing of one inbound message.
const handleTimeout = 10 * time.Second

// Subscriber is the broker connection inbound topics are consumed from.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Coordinator receives decoded inbound reports.
type Coordinator interface {
	Transition(ctx context.Context, deviceID, newStatus, reason, correlationID string) (event.Event, error)
	RecordMetric(ctx context.Context, sample metrics.Sample, correlationID string) error
	RecordHealthCheck(ctx context.Context, deviceID string, healthy bool, details, correlationID string) error
}

// statusReport is the wire format of an inbound status message.
type statusReport struct {
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// metricReport is the wire format of an inbound metric sample.
type metricReport struct {
	Metric        string    `json:"metric"`
	Value         float64   `json:"value"`
	Unit          string    `json:"unit,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// healthReport is the wire format of an inbound health-check result.
type healthReport struct {
	Healthy       bool   `json:"healthy"`
	Details       string `json:"details,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Consumer subscribes to the inbound device topics and routes decoded
// messages to the coordinator.
//
// Topic layout: the device id is the final topic segment
// (devicepulse/ingest/{status|metric|health}/{device_id}), so one
// wildcard subscription per message kind covers every device.
type Consumer struct {
	subscriber Subscriber
	coord      Coordinator
	qos        byte
	logger     *logging.Logger
}

// New creates an inbound consumer. Start must be called after the
// broker connection is established.
func New(subscriber Subscriber, coord Coordinator, qos byte, logger *logging.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		coord:      coord,
		qos:        qos,
		logger:     logger.With("component", "ingest"),
	}
}

// Start subscribes to all inbound topic patterns.
func (c *Consumer) Start() error {
	topics := mqtt.Topics{}

	subs := []struct {
		pattern string
		handler mqtt.MessageHandler
	}{
		{topics.AllIngestStatus(), c.handleStatus},
		{topics.AllIngestMetrics(), c.handleMetric},
		{topics.AllIngestHealth(), c.handleHealth},
	}

	for _, sub := range subs {
		if err := c.subscriber.Subscribe(sub.pattern, c.qos, sub.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", sub.pattern, err)
		}
	}

	c.logger.Info("inbound consumers started", "subscriptions", len(subs))
	return nil
}

// Close removes the inbound subscriptions. Messages already dispatched
// to a handler still complete.
func (c *Consumer) Close() error {
	topics := mqtt.Topics{}

	var firstErr error
	for _, pattern := range []string{topics.AllIngestStatus(), topics.AllIngestMetrics(), topics.AllIngestHealth()} {
		if err := c.subscriber.Unsubscribe(pattern); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("unsubscribing from %s: %w", pattern, err)
		}
	}

	c.logger.Info("inbound consumers stopped")
	return firstErr
}

// handleStatus processes one inbound status report.
func (c *Consumer) handleStatus(topic string, payload []byte) error {
	deviceID, err := deviceIDFromTopic(topic)
	if err != nil {
		return err
	}

	var report statusReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("decoding status report for %s: %w", deviceID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	_, err = c.coord.Transition(ctx, deviceID, report.Status, report.Reason, report.CorrelationID)
	return err
}

// handleMetric processes one inbound metric sample.
func (c *Consumer) handleMetric(topic string, payload []byte) error {
	deviceID, err := deviceIDFromTopic(topic)
	if err != nil {
		return err
	}

	var report metricReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("decoding metric report for %s: %w", deviceID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	return c.coord.RecordMetric(ctx, metrics.Sample{
		DeviceID:  deviceID,
		Metric:    report.Metric,
		Value:     report.Value,
		Unit:      report.Unit,
		Timestamp: report.Timestamp,
	}, report.CorrelationID)
}

// handleHealth processes one inbound health-check result.
func (c *Consumer) handleHealth(topic string, payload []byte) error {
	deviceID, err := deviceIDFromTopic(topic)
	if err != nil {
		return err
	}

	var report healthReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("decoding health report for %s: %w", deviceID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	return c.coord.RecordHealthCheck(ctx, deviceID, report.Healthy, report.Details, report.CorrelationID)
}

// deviceIDFromTopic extracts the trailing device id segment.
func deviceIDFromTopic(topic string) (string, error) {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return "", fmt.Errorf("no device id in topic %q", topic)
	}
	return topic[idx+1:], nil
}
