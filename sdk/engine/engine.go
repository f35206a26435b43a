// Package engine wires controls, a GPIO driver and a MIDI sink into a running
// control event engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/gpio2midi/internal/dispatcher"
	"github.com/leandrodaf/gpio2midi/internal/registry"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"go.uber.org/multierr"
)

// ErrAlreadyRun is returned when Run is called more than once.
var ErrAlreadyRun = errors.New("engine already started")

// Engine owns the driver, the sink and every acquired pin. Injected drivers
// and sinks are closed by the engine as well.
type Engine struct {
	log        contracts.Logger
	options    contracts.EngineOptions
	driver     contracts.GPIODriver
	sink       contracts.Sink
	registry   *registry.Registry
	dispatcher *dispatcher.Dispatcher

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error

	// mu guards cancel and done, which are set while Run is active.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an engine with the specified options. It opens the backends,
// acquires every configured pin and leaves the engine in StateStarting.
//
// opts ...contracts.Option: A variadic list of option functions to customize the engine.
//
// Returns:
//   - *Engine: An engine ready to Run.
//   - error: A configuration, driver or sink error.
func New(opts ...contracts.Option) (*Engine, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	log := options.Logger

	d, err := dispatcher.New(dispatcher.Options{
		Logger:        log,
		QueueCapacity: options.QueueCapacity,
		PollingRate:   options.PollingRate,
		Channel:       options.Channel,
		StatsInterval: options.StatsInterval,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{log: log, options: options, dispatcher: d}
	e.state.Store(int32(contracts.StateStarting))

	e.driver = options.GPIODriver
	if e.driver == nil {
		if e.driver, err = NewGPIODriver(&options); err != nil {
			if options.Sink != nil {
				err = multierr.Append(err, options.Sink.Close())
			}
			return nil, err
		}
	}

	e.registry, err = registry.Build(options.Controls, e.driver, d.Enqueue, log)
	if err != nil {
		err = multierr.Append(err, e.driver.Close())
		if options.Sink != nil {
			err = multierr.Append(err, options.Sink.Close())
		}
		return nil, err
	}

	e.sink = options.Sink
	if e.sink == nil {
		if e.sink, err = NewSink(&options); err != nil {
			return nil, multierr.Combine(err, e.registry.Close(), e.driver.Close())
		}
	}

	log.Info("engine ready",
		log.Field().Int("controls", e.registry.Len()),
		log.Field().String("gpio", backendName(options.GPIODriver, options.GPIOBackend)),
		log.Field().String("midi", backendName(options.Sink, options.MIDIBackend)),
		log.Field().Int("channel", int(options.Channel)+1))
	return e, nil
}

func backendName(injected any, name string) string {
	if injected != nil {
		return fmt.Sprintf("%T", injected)
	}
	return name
}

// Run processes events until ctx is cancelled or Close is called, then
// releases every resource. Queued button events are delivered before the
// sink is closed.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if !e.state.CompareAndSwap(int32(contracts.StateStarting), int32(contracts.StateRunning)) {
		e.mu.Unlock()
		return ErrAlreadyRun
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	e.mu.Unlock()

	defer close(e.done)
	defer e.cancel()
	e.log.Info("engine running")

	runErr := e.dispatcher.Run(ctx, e.registry, e.sink)

	e.state.CompareAndSwap(int32(contracts.StateRunning), int32(contracts.StateShuttingDown))
	e.log.Info("engine shutting down")
	return multierr.Append(runErr, e.release())
}

// Close releases pins, the driver and the sink. While Run is active it stops
// the loops and waits for Run to return first. It is safe to call more than
// once.
func (e *Engine) Close() error {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	if done == nil {
		// Keeps a concurrent Run from starting on released resources.
		e.state.CompareAndSwap(int32(contracts.StateStarting), int32(contracts.StateShuttingDown))
	}
	e.mu.Unlock()

	if done != nil {
		cancel()
		<-done
		return e.closeErr
	}
	return e.release()
}

func (e *Engine) release() error {
	e.closeOnce.Do(func() {
		e.setState(contracts.StateShuttingDown)
		e.closeErr = multierr.Combine(
			e.registry.Close(),
			e.driver.Close(),
			e.sink.Close(),
		)
		e.setState(contracts.StateStopped)
		if e.closeErr != nil {
			e.log.Error("engine stopped with errors", e.log.Field().Error("error", e.closeErr))
		} else {
			e.log.Info("engine stopped")
		}
	})
	return e.closeErr
}

func (e *Engine) setState(s contracts.EngineState) {
	e.state.Store(int32(s))
}

// State returns the current lifecycle phase.
func (e *Engine) State() contracts.EngineState {
	return contracts.EngineState(e.state.Load())
}

// Stats returns the dispatcher counters.
func (e *Engine) Stats() contracts.Stats {
	return e.dispatcher.Stats()
}

// Options returns the effective options after defaults.
func (e *Engine) Options() contracts.EngineOptions {
	return e.options
}
