package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/device-pulse/internal/event"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/metrics"
)

// alertTypeMetricThreshold names the alert class emitted for breached
// metric rules.
const alertTypeMetricThreshold = "metric-threshold"

// CooldownStore tracks recently fired alerts for duplicate suppression.
type CooldownStore interface {
	// MarkAlert returns true when this device/metric/severity has not
	// alerted within the cooldown window, atomically claiming the
	// window. A non-positive cooldown must report true: such rules have
	// no suppression window and fire on every breach.
	MarkAlert(ctx context.Context, deviceID, metric, severity string, cooldown time.Duration) (bool, error)
}

// Evaluator applies threshold rules to metric samples and produces the
// events each breach warrants.
//
// Duplicate suppression is delegated to the cooldown store, keyed by
// device, metric and severity. If the store is unreachable the
// evaluator fails open: the breach is reported (possibly duplicated)
// rather than silently swallowed.
type Evaluator struct {
	rules     []Rule
	cooldowns CooldownStore
	builder   *event.Builder
	logger    *logging.Logger
}

// NewEvaluator creates an evaluator over the given rule set.
func NewEvaluator(rules []Rule, cooldowns CooldownStore, builder *event.Builder, logger *logging.Logger) *Evaluator {
	return &Evaluator{
		rules:     rules,
		cooldowns: cooldowns,
		builder:   builder,
		logger:    logger.With("component", "alert"),
	}
}

// Evaluate checks a sample against every matching rule.
//
// For each breached rule that is not inside its cooldown window, a
// threshold-exceeded event is produced; rules flagged alert-worthy
// additionally produce an alert-triggered event. Breaches suppressed by
// cooldown produce nothing.
//
// Parameters:
//   - sample: the metric observation to evaluate
//   - correlationID: propagated onto emitted events; may be empty
//
// Returns:
//   - []event.Event: events to publish, possibly empty
//   - error: event construction failures only; cooldown store failures
//     are logged and fail open
func (e *Evaluator) Evaluate(ctx context.Context, sample metrics.Sample, correlationID string) ([]event.Event, error) {
	var out []event.Event

	for _, rule := range e.rules {
		if rule.Metric != sample.Metric {
			continue
		}
		if !rule.Breached(sample.Value) {
			continue
		}

		emit, err := e.cooldowns.MarkAlert(ctx, sample.DeviceID, rule.Metric, rule.Severity, rule.Cooldown)
		if err != nil {
			e.logger.Warn("cooldown store unavailable, emitting without dedup",
				"device_id", sample.DeviceID,
				"rule", rule.String(),
				"error", err,
			)
			emit = true
		}
		if !emit {
			e.logger.Debug("alert suppressed by cooldown",
				"device_id", sample.DeviceID,
				"rule", rule.String(),
			)
			continue
		}

		exceeded, err := e.builder.Build(event.TypeThresholdExceeded, sample.DeviceID,
			event.ThresholdExceededPayload{
				Metric:   sample.Metric,
				Value:    sample.Value,
				Unit:     sample.Unit,
				Operator: rule.Operator,
				Limit:    rule.Limit,
				Severity: rule.Severity,
			},
			event.WithCorrelationID(correlationID),
		)
		if err != nil {
			return nil, fmt.Errorf("building threshold event: %w", err)
		}
		out = append(out, exceeded)

		e.logger.Info("threshold exceeded",
			"device_id", sample.DeviceID,
			"rule", rule.String(),
			"value", sample.Value,
		)

		if !rule.AlertWorthy {
			continue
		}

		triggered, err := e.builder.Build(event.TypeAlertTriggered, sample.DeviceID,
			event.AlertTriggeredPayload{
				AlertType: alertTypeMetricThreshold,
				Severity:  rule.Severity,
				Metric:    sample.Metric,
				Value:     sample.Value,
				Message:   fmt.Sprintf("%s is %g, breaching %s", sample.Metric, sample.Value, rule.String()),
			},
			event.WithCorrelationID(correlationID),
		)
		if err != nil {
			return nil, fmt.Errorf("building alert event: %w", err)
		}
		out = append(out, triggered)
	}

	return out, nil
}

// RuleCount reports the number of configured rules.
func (e *Evaluator) RuleCount() int {
	return len(e.rules)
}
