// Package periph drives pins through periph.io, which picks the best host
// driver available (sysfs, bcm283x registers, allwinner).
package periph

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpioutil"
	"periph.io/x/host/v3"
)

// edgeWait bounds each WaitForEdge call so Close never waits longer than this.
const edgeWait = 100 * time.Millisecond

type Driver struct {
	logger contracts.Logger

	mu   sync.Mutex
	pins map[uint8]*pin
}

// New initialises the periph host drivers.
func New(logger contracts.Logger) (contracts.GPIODriver, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("%w: periph host init: %v", contracts.ErrDriver, err)
	}
	for _, failure := range state.Failed {
		logger.Debug("periph driver failed to load", logger.Field().String("driver", failure.String()))
	}
	logger.Info("periph host initialised", logger.Field().Int("drivers", len(state.Loaded)))
	return &Driver{logger: logger, pins: make(map[uint8]*pin)}, nil
}

func (d *Driver) Input(n uint8, pull contracts.PullMode) (contracts.Pin, error) {
	p, err := d.acquire(n, pull, gpio.NoEdge)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *Driver) Interrupt(n uint8, pull contracts.PullMode, debounce time.Duration, handler contracts.EdgeHandler) (contracts.Pin, error) {
	p, err := d.acquire(n, pull, gpio.BothEdges)
	if err != nil {
		return nil, err
	}

	if debounce > 0 {
		db, err := gpioutil.Debounce(p.io, 0, debounce, gpio.BothEdges)
		if err != nil {
			d.logger.Warn("periph debounce unavailable, using raw edges",
				d.logger.Field().Uint8("pin", n),
				d.logger.Field().Error("error", err))
		} else {
			p.in = db
		}
	}

	p.wg.Add(1)
	go p.watch(handler)
	return p, nil
}

func (d *Driver) acquire(n uint8, pull contracts.PullMode, edge gpio.Edge) (*pin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.pins[n]; busy {
		return nil, fmt.Errorf("GPIO%d already acquired", n)
	}
	io := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if io == nil {
		return nil, fmt.Errorf("GPIO%d not found", n)
	}
	bias := gpio.PullDown
	if pull == contracts.PullUp {
		bias = gpio.PullUp
	}
	if err := io.In(bias, edge); err != nil {
		return nil, fmt.Errorf("GPIO%d: %w", n, err)
	}

	p := &pin{driver: d, number: n, io: io, in: io, done: make(chan struct{})}
	d.pins[n] = p
	return p, nil
}

// Close halts pins the caller did not close.
func (d *Driver) Close() error {
	d.mu.Lock()
	pins := make([]*pin, 0, len(d.pins))
	for _, p := range d.pins {
		pins = append(pins, p)
	}
	d.mu.Unlock()

	var err error
	for _, p := range pins {
		err = multierr.Append(err, p.Close())
	}
	return err
}

type pin struct {
	driver *Driver
	number uint8
	io     gpio.PinIO
	in     gpio.PinIn

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (p *pin) Number() uint8 { return p.number }

func (p *pin) Read() (contracts.Level, error) {
	return contracts.Level(p.in.Read() == gpio.High), nil
}

// watch reports level changes until the pin is closed.
func (p *pin) watch(handler contracts.EdgeHandler) {
	defer p.wg.Done()

	last := p.in.Read()
	for {
		select {
		case <-p.done:
			return
		default:
		}
		if !p.in.WaitForEdge(edgeWait) {
			continue
		}
		level := p.in.Read()
		if level == last {
			continue
		}
		last = level
		edge := contracts.EdgeFalling
		if level == gpio.High {
			edge = contracts.EdgeRising
		}
		handler(contracts.EdgeEvent{Pin: p.number, Edge: edge, Time: time.Now()})
	}
}

func (p *pin) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()

		p.driver.mu.Lock()
		delete(p.driver.pins, p.number)
		p.driver.mu.Unlock()

		err = p.io.Halt()
	})
	return err
}
