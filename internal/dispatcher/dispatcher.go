// Package dispatcher merges button interrupts and encoder polling into one
// serialized stream of Control Change messages.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/gpio2midi/internal/registry"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

const (
	DefaultQueueCapacity = 256
	DefaultPollingRate   = 4000.0
)

// Options configures a Dispatcher. Zero values fall back to the defaults.
type Options struct {
	Logger        contracts.Logger
	QueueCapacity int
	PollingRate   float64 // Hz
	Channel       uint8   // zero-based
	StatsInterval time.Duration
}

// Dispatcher owns the interrupt queue and the sink lock.
type Dispatcher struct {
	log           contracts.Logger
	queue         chan contracts.EdgeEvent
	period        time.Duration
	channel       uint8
	statsInterval time.Duration

	// sinkMu is held only for the duration of one Send.
	sinkMu sync.Mutex

	sent       atomic.Uint64
	sendErrors atomic.Uint64
	dropped    atomic.Uint64
	readErrors atomic.Uint64
}

// New creates a dispatcher with an empty queue. Enqueue may be used before Run.
func New(opts Options) (*Dispatcher, error) {
	if opts.Logger == nil {
		return nil, errors.New("dispatcher: logger is required")
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.PollingRate <= 0 {
		opts.PollingRate = DefaultPollingRate
	}
	if opts.Channel > 15 {
		return nil, fmt.Errorf("%w: midi channel %d out of range [0,15]", contracts.ErrConfig, opts.Channel)
	}

	period := time.Duration(float64(time.Second) / opts.PollingRate)
	if period <= 0 {
		period = time.Microsecond
	}

	return &Dispatcher{
		log:           opts.Logger,
		queue:         make(chan contracts.EdgeEvent, opts.QueueCapacity),
		period:        period,
		channel:       opts.Channel,
		statsInterval: opts.StatsInterval,
	}, nil
}

// Enqueue is a contracts.EdgeHandler. It runs in the driver's interrupt
// context, never blocks and never touches the sink. Events that do not fit
// are counted as dropped.
func (d *Dispatcher) Enqueue(ev contracts.EdgeEvent) {
	_ = d.TryEnqueue(ev)
}

// TryEnqueue is Enqueue that reports overflow.
func (d *Dispatcher) TryEnqueue(ev contracts.EdgeEvent) error {
	select {
	case d.queue <- ev:
		return nil
	default:
		d.dropped.Add(1)
		return contracts.ErrQueueOverflow
	}
}

// Period is the poll loop interval.
func (d *Dispatcher) Period() time.Duration { return d.period }

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() contracts.Stats {
	return contracts.Stats{
		Sent:       d.sent.Load(),
		SendErrors: d.sendErrors.Load(),
		Dropped:    d.dropped.Load(),
		ReadErrors: d.readErrors.Load(),
		Queued:     len(d.queue),
	}
}

// Run starts the poll loop and the consumer loop and blocks until ctx is
// cancelled and both have returned. Events already queued at cancellation
// are still delivered.
func (d *Dispatcher) Run(ctx context.Context, reg *registry.Registry, sink contracts.Sink) error {
	if reg == nil {
		return errors.New("dispatcher: nil registry")
	}
	if sink == nil {
		return errors.New("dispatcher: nil sink")
	}

	var wg sync.WaitGroup

	if encoders := reg.Encoders(); len(encoders) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.pollLoop(ctx, reg, sink)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.consumeLoop(ctx, reg, sink)
	}()

	if d.statsInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.statsLoop(ctx)
		}()
	}

	d.log.Info("dispatcher started",
		d.log.Field().Int("controls", reg.Len()),
		d.log.Field().Duration("poll_period", d.period),
		d.log.Field().Int("queue_capacity", cap(d.queue)))

	wg.Wait()

	s := d.Stats()
	d.log.Info("dispatcher stopped",
		d.log.Field().Uint64("sent", s.Sent),
		d.log.Field().Uint64("send_errors", s.SendErrors),
		d.log.Field().Uint64("dropped", s.Dropped),
		d.log.Field().Uint64("read_errors", s.ReadErrors))
	return nil
}

func (d *Dispatcher) pollLoop(ctx context.Context, reg *registry.Registry, sink contracts.Sink) {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pollOnce(reg, sink)
		}
	}
}

// pollOnce samples every encoder once.
func (d *Dispatcher) pollOnce(reg *registry.Registry, sink contracts.Sink) {
	for _, enc := range reg.Encoders() {
		phase, err := enc.Sample()
		if err != nil {
			if d.readErrors.Add(1) == 1 {
				d.log.Warn("encoder read failed", d.log.Field().Error("error", err))
			}
			continue
		}
		if value, ok := enc.Advance(phase); ok {
			d.send(sink, enc.CC, value)
		}
	}
}

func (d *Dispatcher) consumeLoop(ctx context.Context, reg *registry.Registry, sink contracts.Sink) {
	for {
		select {
		case <-ctx.Done():
			d.drain(reg, sink)
			return
		case ev := <-d.queue:
			d.handle(reg, sink, ev)
		}
	}
}

// drain delivers whatever is already queued without waiting for more.
func (d *Dispatcher) drain(reg *registry.Registry, sink contracts.Sink) {
	for {
		select {
		case ev := <-d.queue:
			d.handle(reg, sink, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(reg *registry.Registry, sink contracts.Sink, ev contracts.EdgeEvent) {
	b, ok := reg.Button(ev.Pin)
	if !ok {
		d.log.Debug("edge on unregistered pin", d.log.Field().Uint8("pin", ev.Pin))
		return
	}
	value, ok := b.Value(ev.Edge)
	if !ok {
		return
	}
	d.send(sink, b.CC, value)
}

// send writes one CC message. Sink errors are counted and logged, never
// propagated.
func (d *Dispatcher) send(sink contracts.Sink, cc, value uint8) {
	msg := midi.ControlChange(d.channel, cc, value)

	d.sinkMu.Lock()
	err := sink.Send(msg.Bytes())
	d.sinkMu.Unlock()

	if err != nil {
		d.sendErrors.Add(1)
		d.log.Warn("midi send failed",
			d.log.Field().Uint8("cc", cc),
			d.log.Field().Uint8("value", value),
			d.log.Field().Error("error", fmt.Errorf("%w: %v", contracts.ErrSink, err)))
		return
	}
	d.sent.Add(1)
	d.log.Debug("cc sent", d.log.Field().Uint8("cc", cc), d.log.Field().Uint8("value", value))
}

func (d *Dispatcher) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(d.statsInterval)
	defer ticker.Stop()

	var prev contracts.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev = d.reportStats(prev)
		}
	}
}

// reportStats logs the counters when they moved since prev and returns the
// new snapshot. Drops are logged at warn.
func (d *Dispatcher) reportStats(prev contracts.Stats) contracts.Stats {
	cur := d.Stats()
	if cur.Sent == prev.Sent && cur.SendErrors == prev.SendErrors &&
		cur.Dropped == prev.Dropped && cur.ReadErrors == prev.ReadErrors {
		return cur
	}

	fields := []contracts.Field{
		d.log.Field().Uint64("sent", cur.Sent-prev.Sent),
		d.log.Field().Uint64("send_errors", cur.SendErrors-prev.SendErrors),
		d.log.Field().Uint64("dropped", cur.Dropped-prev.Dropped),
		d.log.Field().Uint64("read_errors", cur.ReadErrors-prev.ReadErrors),
		d.log.Field().Int("queued", cur.Queued),
	}
	if cur.Dropped > prev.Dropped {
		d.log.Warn("interrupt queue overflowed", fields...)
	} else {
		d.log.Info("dispatcher stats", fields...)
	}
	return cur
}
