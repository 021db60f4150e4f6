package event

import (
	"errors"
	"testing"
)

func TestBuild_StatusChanged(t *testing.T) {
	b := NewBuilder("devicepulse")

	e, err := b.Build(TypeStatusChanged, "dev-1", StatusChangedPayload{
		PreviousStatus: "offline",
		CurrentStatus:  "online",
		Reason:         "heartbeat received",
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if e.ID == "" {
		t.Error("expected non-empty event id")
	}
	if e.Source != "devicepulse" {
		t.Errorf("Source = %q, want devicepulse", e.Source)
	}
	if e.DeviceID != "dev-1" {
		t.Errorf("DeviceID = %q, want dev-1", e.DeviceID)
	}
	if e.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if e.Timestamp.Location() != e.Timestamp.UTC().Location() {
		t.Error("expected UTC timestamp")
	}

	wantTags := []string{"status-change", "online"}
	assertTags(t, e.Tags, wantTags)
}

func TestBuild_TagComposition(t *testing.T) {
	b := NewBuilder("devicepulse")

	tests := []struct {
		name      string
		eventType Type
		payload   any
		opts      []Option
		wantTags  []string
	}{
		{
			name:      "threshold exceeded",
			eventType: TypeThresholdExceeded,
			payload: ThresholdExceededPayload{
				Metric: "temperature", Value: 95, Operator: ">", Limit: 90, Severity: "critical",
			},
			wantTags: []string{"threshold-exceeded", "temperature", "critical"},
		},
		{
			name:      "health check healthy",
			eventType: TypeHealthCheck,
			payload:   HealthCheckPayload{Result: "healthy"},
			wantTags:  []string{"health-check", "healthy"},
		},
		{
			name:      "health check unhealthy",
			eventType: TypeHealthCheck,
			payload:   HealthCheckPayload{Result: "unhealthy", Details: "no heartbeat"},
			wantTags:  []string{"health-check", "unhealthy"},
		},
		{
			name:      "alert triggered",
			eventType: TypeAlertTriggered,
			payload: AlertTriggeredPayload{
				AlertType: "metric-threshold", Severity: "high", Metric: "humidity",
			},
			wantTags: []string{"alert", "metric-threshold", "high"},
		},
		{
			name:      "extra tags appended after derived tags",
			eventType: TypeStatusChanged,
			payload:   StatusChangedPayload{CurrentStatus: "degraded"},
			opts:      []Option{WithTags("region-eu", "batch-7")},
			wantTags:  []string{"status-change", "degraded", "region-eu", "batch-7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := b.Build(tt.eventType, "dev-1", tt.payload, tt.opts...)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			assertTags(t, e.Tags, tt.wantTags)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	b := NewBuilder("devicepulse")

	tests := []struct {
		name      string
		eventType Type
		deviceID  string
		payload   any
		wantErr   error
	}{
		{
			name:      "missing device id",
			eventType: TypeStatusChanged,
			deviceID:  "",
			payload:   StatusChangedPayload{CurrentStatus: "online"},
			wantErr:   ErrMissingDeviceID,
		},
		{
			name:      "unknown type",
			eventType: Type("nonsense"),
			deviceID:  "dev-1",
			payload:   StatusChangedPayload{CurrentStatus: "online"},
			wantErr:   ErrUnknownType,
		},
		{
			name:      "wrong payload type",
			eventType: TypeStatusChanged,
			deviceID:  "dev-1",
			payload:   HealthCheckPayload{Result: "healthy"},
			wantErr:   ErrInvalidPayload,
		},
		{
			name:      "nil payload",
			eventType: TypeThresholdExceeded,
			deviceID:  "dev-1",
			payload:   nil,
			wantErr:   ErrInvalidPayload,
		},
		{
			name:      "empty current status",
			eventType: TypeStatusChanged,
			deviceID:  "dev-1",
			payload:   StatusChangedPayload{PreviousStatus: "online"},
			wantErr:   ErrInvalidPayload,
		},
		{
			name:      "threshold missing severity",
			eventType: TypeThresholdExceeded,
			deviceID:  "dev-1",
			payload:   ThresholdExceededPayload{Metric: "temperature"},
			wantErr:   ErrInvalidPayload,
		},
		{
			name:      "health result out of range",
			eventType: TypeHealthCheck,
			deviceID:  "dev-1",
			payload:   HealthCheckPayload{Result: "ok"},
			wantErr:   ErrInvalidPayload,
		},
		{
			name:      "alert missing type",
			eventType: TypeAlertTriggered,
			deviceID:  "dev-1",
			payload:   AlertTriggeredPayload{Severity: "low"},
			wantErr:   ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.eventType, tt.deviceID, tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_CorrelationID(t *testing.T) {
	b := NewBuilder("devicepulse")

	e, err := b.Build(TypeHealthCheck, "dev-1", HealthCheckPayload{Result: "healthy"},
		WithCorrelationID("req-42"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if e.CorrelationID != "req-42" {
		t.Errorf("CorrelationID = %q, want req-42", e.CorrelationID)
	}

	// Empty correlation ids are ignored.
	e, err = b.Build(TypeHealthCheck, "dev-1", HealthCheckPayload{Result: "healthy"},
		WithCorrelationID(""))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if e.CorrelationID != "" {
		t.Errorf("CorrelationID = %q, want empty", e.CorrelationID)
	}
}

func TestBuild_UniqueIDs(t *testing.T) {
	b := NewBuilder("devicepulse")

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		e, err := b.Build(TypeHealthCheck, "dev-1", HealthCheckPayload{Result: "healthy"})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate event id %q", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestTypeCategory(t *testing.T) {
	tests := []struct {
		eventType Type
		want      string
	}{
		{TypeStatusChanged, "status-change"},
		{TypeThresholdExceeded, "threshold-exceeded"},
		{TypeHealthCheck, "health-check"},
		{TypeAlertTriggered, "alert"},
		{Type("bogus"), ""},
	}

	for _, tt := range tests {
		if got := tt.eventType.Category(); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.eventType, got, tt.want)
		}
	}
}

func assertTags(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tags[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}
