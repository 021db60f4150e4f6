package alert

import (
	"fmt"
	"time"

	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
)

// Rule is a compiled threshold rule.
type Rule struct {
	// Metric is the metric name this rule watches.
	Metric string

	// Operator is the comparison applied as value <op> limit.
	Operator string

	// Limit is the threshold the sample value is compared against.
	Limit float64

	// Severity is attached verbatim to emitted events.
	Severity string

	// Cooldown suppresses duplicate alerts for the same
	// device/metric/severity within this window.
	Cooldown time.Duration

	// AlertWorthy escalates a breach to an additional alert-triggered
	// event on top of the threshold-exceeded event.
	AlertWorthy bool
}

// RulesFromConfig compiles configured threshold rules. Configuration
// validation has already vetted operators and severities.
func RulesFromConfig(cfgs []config.ThresholdRuleConfig) []Rule {
	rules := make([]Rule, 0, len(cfgs))
	for _, c := range cfgs {
		rules = append(rules, Rule{
			Metric:      c.Metric,
			Operator:    c.Operator,
			Limit:       c.Limit,
			Severity:    c.Severity,
			Cooldown:    c.Cooldown(),
			AlertWorthy: c.AlertWorthy,
		})
	}
	return rules
}

// Breached reports whether the sample value violates the rule.
func (r Rule) Breached(value float64) bool {
	switch r.Operator {
	case ">":
		return value > r.Limit
	case ">=":
		return value >= r.Limit
	case "<":
		return value < r.Limit
	case "<=":
		return value <= r.Limit
	case "==":
		return value == r.Limit
	case "!=":
		return value != r.Limit
	default:
		return false
	}
}

// String describes the rule for logging.
func (r Rule) String() string {
	return fmt.Sprintf("%s %s %g (%s)", r.Metric, r.Operator, r.Limit, r.Severity)
}
