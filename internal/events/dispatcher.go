package events

import (
	"context"
	"sync"
	"time"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/circuitbreaker"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/getmentor/getmentor-escrow/pkg/retry"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Sink receives committed events
type Sink interface {
	Name() string
	Accepts(name models.EventName) bool
	Deliver(ctx context.Context, env Envelope) error
}

type boundSink struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker
	retry   retry.Config
}

// DefaultQueueSize bounds the number of undelivered events held in memory
const DefaultQueueSize = 1024

// Dispatcher is a statedb commit hook. It records every event synchronously in logs and
// metrics, then hands it to a single background worker that delivers to the sinks in
// commit order. When the queue is full the event is dropped and counted.
type Dispatcher struct {
	sinks []boundSink
	queue chan Envelope
	now   func() time.Time

	mu      sync.Mutex
	closed  bool
	started bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithClock overrides the envelope timestamp source
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher with the given queue capacity
func NewDispatcher(queueSize int, opts ...DispatcherOption) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		queue: make(chan Envelope, queueSize),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddSink registers s with its own circuit breaker. Must be called before Start.
func (d *Dispatcher) AddSink(s Sink, cfg retry.Config) {
	d.sinks = append(d.sinks, boundSink{
		sink:    s,
		breaker: circuitbreaker.New(circuitbreaker.SinkConfig("sink_" + s.Name())),
		retry:   cfg,
	})
}

// OnCommit implements statedb.CommitHook
func (d *Dispatcher) OnCommit(height uint64, evs []statedb.Event) {
	metrics.LedgerHeight.Set(float64(height))

	at := d.now()
	for i, raw := range evs {
		e, ok := raw.(models.Event)
		if !ok {
			logger.Warn("Skipping unknown event type", zap.String("event", raw.EventName()))
			continue
		}
		env := newEnvelope(height, i, e, at)

		metrics.LedgerEvents.WithLabelValues(string(e.Name)).Inc()
		logger.Info("Ledger event",
			zap.String("event_id", env.ID.String()),
			zap.Uint64("height", height),
			zap.Int("seq", i),
			zap.String("event", string(e.Name)),
			zap.String("contract", e.Contract.String()),
			zap.Any("payload", e.Payload))

		d.enqueue(env)
	}
}

func (d *Dispatcher) enqueue(env Envelope) {
	if len(d.sinks) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		metrics.EventQueueDropped.Inc()
		return
	}

	select {
	case d.queue <- env:
	default:
		metrics.EventQueueDropped.Inc()
		logger.Warn("Event queue full, dropping event",
			zap.String("event_id", env.ID.String()),
			zap.String("event", string(env.Name)),
			zap.Uint64("height", env.Height))
	}
}

// Start launches the delivery worker
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for env := range d.queue {
		for _, bs := range d.sinks {
			if !bs.sink.Accepts(env.Name) {
				continue
			}
			d.deliver(ctx, bs, env)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, bs boundSink, env Envelope) {
	start := time.Now()
	name := bs.sink.Name()

	err := retry.Do(ctx, bs.retry, "sink_"+name, func() error {
		err := circuitbreaker.Run(bs.breaker, func() error {
			return bs.sink.Deliver(ctx, env)
		})
		if circuitbreaker.IsRejected(err) {
			return retry.Permanent(circuitbreaker.FormatError(bs.breaker.Name(), err))
		}
		return err
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		metrics.EventSinkDuration.WithLabelValues(name, "error").Observe(duration)
		metrics.EventSinkTotal.WithLabelValues(name, "error").Inc()
		logger.Error("Event delivery failed",
			zap.Error(err),
			zap.String("sink", name),
			zap.String("event_id", env.ID.String()),
			zap.String("event", string(env.Name)),
			zap.Uint64("height", env.Height))
		return
	}

	metrics.EventSinkDuration.WithLabelValues(name, "success").Observe(duration)
	metrics.EventSinkTotal.WithLabelValues(name, "success").Inc()
}

// Shutdown stops accepting events and waits for the queue to drain.
// When ctx expires first, in-flight deliveries are canceled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}
