package metrics

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/retry"
)

// mockSink records writes and can fail a configured number of times.
type mockSink struct {
	mu       sync.Mutex
	writes   []Sample
	failures int
	calls    int
	written  chan struct{}
}

func newMockSink() *mockSink {
	return &mockSink{written: make(chan struct{}, 64)}
}

func (m *mockSink) WriteSample(_ context.Context, deviceID, metric, unit string, value float64, timestamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("backend down")
	}

	m.writes = append(m.writes, Sample{
		DeviceID: deviceID, Metric: metric, Unit: unit, Value: value, Timestamp: timestamp,
	})
	m.written <- struct{}{}
	return nil
}

func (m *mockSink) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

func (m *mockSink) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSink) lastWrite() Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[len(m.writes)-1]
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test", "test")
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func waitForWrite(t *testing.T, sink *mockSink) {
	t.Helper()
	select {
	case <-sink.written:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sample to flush")
	}
}

func TestSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		sample  Sample
		wantErr bool
	}{
		{"valid", Sample{DeviceID: "dev-1", Metric: "temperature", Value: 21.5}, false},
		{"valid with underscores", Sample{DeviceID: "dev-1", Metric: "signal_strength", Value: -70}, false},
		{"empty device id", Sample{Metric: "temperature", Value: 1}, true},
		{"empty metric", Sample{DeviceID: "dev-1", Value: 1}, true},
		{"uppercase metric", Sample{DeviceID: "dev-1", Metric: "Temperature", Value: 1}, true},
		{"metric starts with digit", Sample{DeviceID: "dev-1", Metric: "5temp", Value: 1}, true},
		{"metric with spaces", Sample{DeviceID: "dev-1", Metric: "temp c", Value: 1}, true},
		{"nan value", Sample{DeviceID: "dev-1", Metric: "temperature", Value: math.NaN()}, true},
		{"infinite value", Sample{DeviceID: "dev-1", Metric: "temperature", Value: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidMetric) {
				t.Errorf("Validate() error = %v, want ErrInvalidMetric", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestDeriveUnit(t *testing.T) {
	tests := []struct {
		metric string
		want   string
	}{
		{"temperature", "celsius"},
		{"humidity", "percent"},
		{"battery", "percent"},
		{"rssi", "dbm"},
		{"uptime", "seconds"},
		{"custom_metric", ""},
	}

	for _, tt := range tests {
		if got := DeriveUnit(tt.metric); got != tt.want {
			t.Errorf("DeriveUnit(%q) = %q, want %q", tt.metric, got, tt.want)
		}
	}
}

func TestWriter_FlushesSample(t *testing.T) {
	sink := newMockSink()
	w := NewWriter(sink, fastPolicy(3), testLogger(), 16)
	w.Start(context.Background())
	defer w.Close()

	err := w.Record(Sample{DeviceID: "dev-1", Metric: "temperature", Value: 21.5})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	waitForWrite(t, sink)

	got := sink.lastWrite()
	if got.DeviceID != "dev-1" || got.Metric != "temperature" || got.Value != 21.5 {
		t.Errorf("unexpected write %+v", got)
	}
	if got.Unit != "celsius" {
		t.Errorf("Unit = %q, want derived celsius", got.Unit)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be stamped")
	}
}

func TestWriter_ExplicitUnitWins(t *testing.T) {
	sink := newMockSink()
	w := NewWriter(sink, fastPolicy(3), testLogger(), 16)
	w.Start(context.Background())
	defer w.Close()

	if err := w.Record(Sample{DeviceID: "dev-1", Metric: "temperature", Value: 70, Unit: "fahrenheit"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	waitForWrite(t, sink)

	if got := sink.lastWrite().Unit; got != "fahrenheit" {
		t.Errorf("Unit = %q, want fahrenheit", got)
	}
}

func TestWriter_RetriesTransientFailure(t *testing.T) {
	sink := newMockSink()
	sink.failures = 2

	w := NewWriter(sink, fastPolicy(5), testLogger(), 16)
	w.Start(context.Background())
	defer w.Close()

	if err := w.Record(Sample{DeviceID: "dev-1", Metric: "humidity", Value: 55}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	waitForWrite(t, sink)

	if calls := sink.callCount(); calls != 3 {
		t.Errorf("sink calls = %d, want 3 (2 failures + 1 success)", calls)
	}
}

func TestWriter_DropsAfterExhaustion(t *testing.T) {
	sink := newMockSink()
	sink.failures = 100

	w := NewWriter(sink, fastPolicy(3), testLogger(), 16)
	w.Start(context.Background())

	if err := w.Record(Sample{DeviceID: "dev-1", Metric: "pressure", Value: 1013}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Close drains the queue, so by the time it returns the sample has
	// been through all its attempts.
	w.Close()

	if calls := sink.callCount(); calls != 3 {
		t.Errorf("sink calls = %d, want exactly MaxAttempts (3)", calls)
	}
	if n := sink.writeCount(); n != 0 {
		t.Errorf("writes = %d, want 0", n)
	}
}

func TestWriter_InvalidSampleRejected(t *testing.T) {
	sink := newMockSink()
	w := NewWriter(sink, fastPolicy(3), testLogger(), 16)
	w.Start(context.Background())
	defer w.Close()

	err := w.Record(Sample{DeviceID: "dev-1", Metric: "Bad Metric", Value: 1})
	if !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("Record() error = %v, want ErrInvalidMetric", err)
	}
}

func TestWriter_QueueFullDropsSilently(t *testing.T) {
	sink := newMockSink()
	// No Start: the queue never drains.
	w := NewWriter(sink, fastPolicy(3), testLogger(), 2)

	for i := 0; i < 10; i++ {
		if err := w.Record(Sample{DeviceID: "dev-1", Metric: "temperature", Value: float64(i)}); err != nil {
			t.Fatalf("Record() error = %v, want nil even when queue is full", err)
		}
	}

	if depth := w.QueueDepth(); depth != 2 {
		t.Errorf("QueueDepth() = %d, want 2", depth)
	}
}

func TestWriter_RecordAfterClose(t *testing.T) {
	sink := newMockSink()
	w := NewWriter(sink, fastPolicy(3), testLogger(), 16)
	w.Start(context.Background())
	w.Close()

	err := w.Record(Sample{DeviceID: "dev-1", Metric: "temperature", Value: 1})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Record() after Close error = %v, want ErrClosed", err)
	}

	// Double close is safe.
	w.Close()
}
