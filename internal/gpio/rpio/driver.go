// Package rpio drives Raspberry Pi pins through /dev/gpiomem register access.
package rpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/stianeikeland/go-rpio/v4"
)

// scanPeriod is how often the edge detect registers are checked.
const scanPeriod = time.Millisecond

// Driver maps the GPIO registers once. go-rpio keeps that mapping in package
// state, so only one Driver may be open at a time.
type Driver struct {
	logger contracts.Logger

	mu       sync.Mutex
	pins     map[uint8]*pin
	watching map[uint8]*watch

	stop chan struct{}
	wg   sync.WaitGroup
}

// watch is the debounce state of one interrupt pin. A detected edge starts a
// settle window; the level is reported once it has been quiet for debounce.
type watch struct {
	debounce time.Duration
	handler  contracts.EdgeHandler
	reported rpio.State
	pending  bool
	since    time.Time
}

func New(logger contracts.Logger) (contracts.GPIODriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("%w: open gpio memory: %v", contracts.ErrDriver, err)
	}
	d := &Driver{
		logger:   logger,
		pins:     make(map[uint8]*pin),
		watching: make(map[uint8]*watch),
		stop:     make(chan struct{}),
	}
	d.wg.Add(1)
	go d.scan()
	logger.Info("rpio gpio memory mapped")
	return d, nil
}

func (d *Driver) Input(n uint8, pull contracts.PullMode) (contracts.Pin, error) {
	return d.acquire(n, pull)
}

func (d *Driver) Interrupt(n uint8, pull contracts.PullMode, debounce time.Duration, handler contracts.EdgeHandler) (contracts.Pin, error) {
	p, err := d.acquire(n, pull)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	p.io.Detect(rpio.AnyEdge)
	d.watching[n] = &watch{debounce: debounce, handler: handler, reported: p.io.Read()}
	return p, nil
}

func (d *Driver) acquire(n uint8, pull contracts.PullMode) (*pin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.pins[n]; busy {
		return nil, fmt.Errorf("pin %d already acquired", n)
	}
	io := rpio.Pin(n)
	io.Input()
	if pull == contracts.PullUp {
		io.PullUp()
	} else {
		io.PullDown()
	}

	p := &pin{driver: d, number: n, io: io}
	d.pins[n] = p
	return p, nil
}

func (d *Driver) scan() {
	defer d.wg.Done()
	ticker := time.NewTicker(scanPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case now := <-ticker.C:
			for _, ev := range d.collect(now) {
				ev.handler(ev.event)
			}
		}
	}
}

type firing struct {
	handler contracts.EdgeHandler
	event   contracts.EdgeEvent
}

// collect advances every watch and returns the edges to report. Handlers are
// called outside the lock.
func (d *Driver) collect(now time.Time) []firing {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []firing
	for n, w := range d.watching {
		io := rpio.Pin(n)
		if io.EdgeDetected() {
			w.pending = true
			w.since = now
		}
		if !w.pending || now.Sub(w.since) < w.debounce {
			continue
		}
		w.pending = false

		level := io.Read()
		if level == w.reported {
			continue
		}
		w.reported = level
		edge := contracts.EdgeFalling
		if level == rpio.High {
			edge = contracts.EdgeRising
		}
		out = append(out, firing{w.handler, contracts.EdgeEvent{Pin: n, Edge: edge, Time: now}})
	}
	return out
}

// Close stops edge scanning and unmaps the registers.
func (d *Driver) Close() error {
	select {
	case <-d.stop:
		return nil
	default:
	}
	close(d.stop)
	d.wg.Wait()

	d.mu.Lock()
	for n := range d.watching {
		rpio.Pin(n).Detect(rpio.NoEdge)
	}
	d.watching = make(map[uint8]*watch)
	d.pins = make(map[uint8]*pin)
	d.mu.Unlock()

	return rpio.Close()
}

type pin struct {
	driver *Driver
	number uint8
	io     rpio.Pin
}

func (p *pin) Number() uint8 { return p.number }

func (p *pin) Read() (contracts.Level, error) {
	return contracts.Level(p.io.Read() == rpio.High), nil
}

func (p *pin) Close() error {
	d := p.driver
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.watching[p.number]; ok {
		p.io.Detect(rpio.NoEdge)
		delete(d.watching, p.number)
	}
	delete(d.pins, p.number)
	return nil
}
