package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/device-pulse/internal/event"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/infrastructure/mqtt"
	"github.com/nerrad567/device-pulse/internal/retry"
)

// maxEventSize mirrors the transport's payload limit so oversized
// events are rejected before they enter a queue.
const maxEventSize = 1 << 20

// Defaults applied when Options fields are zero.
const (
	defaultQueueSize   = 64
	defaultIdleTimeout = 2 * time.Minute
)

// Transport is the broker connection events are published through.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Options tunes publisher behaviour.
type Options struct {
	// QoS is the MQTT quality-of-service level for event messages.
	QoS byte

	// QueueSize is the per-device queue depth. Zero selects the default.
	QueueSize int

	// IdleTimeout is how long a device worker lingers with an empty
	// queue before shutting down. Zero selects the default.
	IdleTimeout time.Duration
}

// job carries one event through a device queue. done is nil for
// fire-and-forget publishes.
type job struct {
	ev      event.Event
	topic   string
	payload []byte
	done    chan error
}

// deviceWorker serializes publishes for one device.
type deviceWorker struct {
	queue chan job

	// pending counts jobs enqueued but not yet fully processed. Guarded
	// by the publisher mutex; a worker only exits when pending is zero,
	// which guarantees no sender is ever left holding a dead queue.
	pending int
}

// Publisher delivers domain events to the broker with per-device
// ordering.
//
// Each device gets its own worker goroutine and queue, so events for
// one device are published strictly in submission order even across
// retries, while different devices proceed independently. Workers are
// created on demand and evicted after sitting idle.
//
// Transient failures (broker unreachable, publish timeout) are retried
// with bounded exponential backoff. When retries are exhausted the
// event is logged in full and dropped; an ordering guarantee that
// blocked forever on one bad event would stall every later event for
// that device.
type Publisher struct {
	transport Transport
	policy    retry.Policy
	logger    *logging.Logger
	opts      Options

	mu      sync.Mutex
	workers map[string]*deviceWorker
	closed  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	dropped atomic.Int64
}

// New creates a publisher sending events through the given transport.
func New(transport Transport, policy retry.Policy, logger *logging.Logger, opts Options) *Publisher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Publisher{
		transport: transport,
		policy:    policy,
		logger:    logger.With("component", "publisher"),
		opts:      opts,
		workers:   make(map[string]*deviceWorker),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Publish delivers an event and waits for the outcome.
//
// The wait respects ctx: if the caller's context expires first, Publish
// returns ctx.Err() but the event REMAINS queued and will still be
// delivered or dropped on its own schedule. Cancellation detaches the
// caller; it never yanks an event out of a device's ordered queue.
//
// Returns:
//   - error: nil once the broker accepted the event; ErrPermanent for
//     unretryable events; ErrDropped after retry exhaustion; ErrClosed
//     after shutdown; ctx.Err() if the caller stopped waiting
func (p *Publisher) Publish(ctx context.Context, ev event.Event) error {
	done := make(chan error, 1)
	if err := p.enqueue(ev, done); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAsync delivers an event without waiting for the outcome.
//
// The returned error covers enqueueing only (ErrClosed, ErrPermanent
// for events that cannot be encoded or are oversized). Delivery
// failures after enqueue are logged by the worker.
func (p *Publisher) PublishAsync(ev event.Event) error {
	return p.enqueue(ev, nil)
}

// enqueue validates and routes the event to its device worker, creating
// the worker if needed.
func (p *Publisher) enqueue(ev event.Event, done chan error) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: encode event %s: %v", ErrPermanent, ev.ID, err)
	}
	if len(payload) > maxEventSize {
		return fmt.Errorf("%w: event %s payload %d bytes exceeds %d", ErrPermanent, ev.ID, len(payload), maxEventSize)
	}

	topic := mqtt.Topics{}.DeviceEvent(ev.DeviceID, string(ev.Type))

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}

	w, ok := p.workers[ev.DeviceID]
	if !ok {
		w = &deviceWorker{queue: make(chan job, p.opts.QueueSize)}
		p.workers[ev.DeviceID] = w
		p.wg.Add(1)
		go p.runWorker(ev.DeviceID, w)
	}
	w.pending++
	p.mu.Unlock()

	select {
	case w.queue <- job{ev: ev, topic: topic, payload: payload, done: done}:
		return nil
	case <-p.ctx.Done():
		p.mu.Lock()
		w.pending--
		p.mu.Unlock()
		return ErrClosed
	}
}

// runWorker drains one device's queue until the queue has been idle for
// the configured timeout or the publisher shuts down.
func (p *Publisher) runWorker(deviceID string, w *deviceWorker) {
	defer p.wg.Done()

	idle := time.NewTimer(p.opts.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case j := <-w.queue:
			p.deliver(j)

			p.mu.Lock()
			w.pending--
			p.mu.Unlock()

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.opts.IdleTimeout)

		case <-idle.C:
			// Exit only when no sender holds a claim on this queue.
			p.mu.Lock()
			if w.pending == 0 {
				delete(p.workers, deviceID)
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			idle.Reset(p.opts.IdleTimeout)

		case <-p.ctx.Done():
			p.drainOnShutdown(w)
			return
		}
	}
}

// drainOnShutdown makes a final delivery attempt for queued jobs so a
// clean shutdown does not silently discard events.
//
// An empty queue alone does not end the drain: a sender that passed the
// closed check may still hold a pending claim and deposit its job after
// this worker looked. The drain only finishes once every claim is
// resolved, either by delivering the job or by the sender bailing out
// on the cancelled context.
func (p *Publisher) drainOnShutdown(w *deviceWorker) {
	for {
		p.mu.Lock()
		pending := w.pending
		p.mu.Unlock()
		if pending == 0 {
			return
		}

		select {
		case j := <-w.queue:
			p.deliver(j)
			p.mu.Lock()
			w.pending--
			p.mu.Unlock()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// deliver publishes one event, retrying transient failures per the
// policy. The job's done channel, if any, receives the final outcome.
func (p *Publisher) deliver(j job) {
	var lastErr error

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		err := p.transport.Publish(j.topic, j.payload, p.opts.QoS, false)
		if err == nil {
			p.finish(j, nil)
			return
		}

		if isPermanent(err) {
			p.drop(j, attempt, err)
			p.finish(j, fmt.Errorf("%w: %w", ErrPermanent, err))
			return
		}

		lastErr = err
		p.logger.Debug("publish attempt failed",
			"device_id", j.ev.DeviceID,
			"event_id", j.ev.ID,
			"attempt", attempt,
			"error", err,
		)

		if attempt < p.policy.MaxAttempts {
			if waitErr := p.policy.Wait(p.ctx, attempt); waitErr != nil {
				break
			}
		}
	}

	p.drop(j, p.policy.MaxAttempts, lastErr)
	p.finish(j, fmt.Errorf("%w: %w: %v", ErrDropped, ErrTransient, lastErr))
}

// drop records an abandoned event. The full serialized event goes into
// the log so no information is lost with it.
func (p *Publisher) drop(j job, attempts int, cause error) {
	p.dropped.Add(1)
	p.logger.Error("dropping event",
		"device_id", j.ev.DeviceID,
		"event_id", j.ev.ID,
		"event_type", string(j.ev.Type),
		"topic", j.topic,
		"attempts", attempts,
		"event", string(j.payload),
		"error", cause,
	)
}

func (p *Publisher) finish(j job, err error) {
	if j.done != nil {
		j.done <- err
	}
}

// isPermanent reports whether a transport error cannot be fixed by
// retrying.
func isPermanent(err error) bool {
	return errors.Is(err, mqtt.ErrInvalidTopic) || errors.Is(err, mqtt.ErrInvalidQoS)
}

// Dropped reports the number of events abandoned since startup.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// WorkerCount reports the number of live device workers.
func (p *Publisher) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Close stops accepting events, gives queued events one final delivery
// attempt, and waits for all workers to exit.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
