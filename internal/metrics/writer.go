package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/retry"
)

// defaultQueueSize is the sample buffer depth when none is configured.
const defaultQueueSize = 1024

// writeTimeout bounds a single write attempt against the backend.
const writeTimeout = 10 * time.Second

// Sink is the time-series backend the writer flushes samples to.
type Sink interface {
	WriteSample(ctx context.Context, deviceID, metric, unit string, value float64, timestamp time.Time) error
}

// Writer records metric samples to a time-series backend without ever
// blocking or failing the caller's operation.
//
// Samples are queued and flushed by a background worker. A full queue
// drops the newest sample with a warning. Write failures are retried
// with exponential backoff; exhausted samples are logged and discarded.
// The only errors Record returns are validation errors on the sample
// itself.
type Writer struct {
	sink   Sink
	policy retry.Policy
	logger *logging.Logger

	queue chan Sample

	mu     sync.Mutex
	closed bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewWriter creates a metrics writer flushing to the given sink.
//
// queueSize <= 0 selects the default buffer depth. The writer does not
// flush until Start is called.
func NewWriter(sink Sink, policy retry.Policy, logger *logging.Logger, queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Writer{
		sink:   sink,
		policy: policy,
		logger: logger.With("component", "metrics"),
		queue:  make(chan Sample, queueSize),
	}
}

// Start launches the background flush worker. The worker runs until
// Close is called; ctx cancellation aborts in-flight retries.
func (w *Writer) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for sample := range w.queue {
			w.flush(ctx, sample)
		}
	}()
}

// Record validates and enqueues a sample for asynchronous writing.
//
// A zero Timestamp is stamped with the current time. An empty Unit is
// derived from the metric name where a convention exists.
//
// Returns:
//   - error: ErrInvalidMetric for malformed samples, ErrClosed after
//     shutdown; nil otherwise, including when the sample was dropped
//     because the queue is full (the drop is logged, not returned)
func (w *Writer) Record(sample Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	if sample.Unit == "" {
		sample.Unit = DeriveUnit(sample.Metric)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	select {
	case w.queue <- sample:
	default:
		w.logger.Warn("metric queue full, dropping sample",
			"device_id", sample.DeviceID,
			"metric", sample.Metric,
			"value", sample.Value,
		)
	}

	return nil
}

// flush writes one sample, retrying transient failures per the policy.
// Exhausted samples are logged with their full content and discarded.
func (w *Writer) flush(ctx context.Context, sample Sample) {
	var lastErr error

	for attempt := 1; attempt <= w.policy.MaxAttempts; attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := w.sink.WriteSample(writeCtx, sample.DeviceID, sample.Metric, sample.Unit, sample.Value, sample.Timestamp)
		cancel()

		if err == nil {
			return
		}
		lastErr = err

		if attempt < w.policy.MaxAttempts {
			if waitErr := w.policy.Wait(ctx, attempt); waitErr != nil {
				// Shutdown in progress; drop without further attempts.
				break
			}
		}
	}

	w.logger.Warn("dropping metric sample after retries",
		"device_id", sample.DeviceID,
		"metric", sample.Metric,
		"value", sample.Value,
		"unit", sample.Unit,
		"timestamp", sample.Timestamp,
		"attempts", w.policy.MaxAttempts,
		"error", lastErr,
	)
}

// Close stops accepting samples, drains the queue, and waits for the
// worker to finish.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()

	if w.cancel != nil {
		w.cancel()
	}
}

// QueueDepth reports the number of samples waiting to be flushed.
func (w *Writer) QueueDepth() int {
	return len(w.queue)
}
