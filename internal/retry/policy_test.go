package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
)

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{
		MaxAttempts: 4,
		BaseDelayMS: 100,
		MaxDelayMS:  2000,
		Jitter:      0.25,
	})

	if p.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", p.MaxAttempts)
	}
	if p.BaseDelay != 100*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 100ms", p.BaseDelay)
	}
	if p.MaxDelay != 2*time.Second {
		t.Errorf("MaxDelay = %v, want 2s", p.MaxDelay)
	}
	if p.Jitter != 0.25 {
		t.Errorf("Jitter = %v, want 0.25", p.Jitter)
	}
}

func TestDelay_ExponentialGrowth(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      0, // deterministic
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 100 * time.Millisecond},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 3, want: 400 * time.Millisecond},
		{attempt: 4, want: 800 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDelay_CappedAtMax(t *testing.T) {
	p := Policy{
		MaxAttempts: 10,
		BaseDelay:   1 * time.Second,
		MaxDelay:    5 * time.Second,
		Jitter:      0,
	}

	if got := p.Delay(10); got != 5*time.Second {
		t.Errorf("Delay(10) = %v, want capped 5s", got)
	}

	// Very large attempt counts must not overflow into negative delays.
	if got := p.Delay(64); got != 5*time.Second {
		t.Errorf("Delay(64) = %v, want capped 5s", got)
	}
}

func TestDelay_JitterBounds(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      0.5,
	}

	for i := 0; i < 100; i++ {
		d := p.Delay(1)
		if d < 50*time.Millisecond || d > 100*time.Millisecond {
			t.Fatalf("Delay(1) = %v, want within [50ms, 100ms]", d)
		}
	}
}

func TestDelay_AttemptBelowOne(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    time.Second,
		Jitter:      0,
	}

	if got := p.Delay(0); got != 100*time.Millisecond {
		t.Errorf("Delay(0) = %v, want base delay", got)
	}
}

func TestWait_Cancelled(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Second,
		MaxDelay:    10 * time.Second,
		Jitter:      0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestWait_Completes(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		Jitter:      0,
	}

	if err := p.Wait(context.Background(), 1); err != nil {
		t.Errorf("Wait() error = %v, want nil", err)
	}
}
