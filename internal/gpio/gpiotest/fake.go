// Package gpiotest provides an in-memory GPIO driver for tests.
package gpiotest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
)

// ErrPinBusy is returned when a pin is acquired twice.
var ErrPinBusy = errors.New("gpiotest: pin already acquired")

// Driver is a scriptable contracts.GPIODriver. Levels start High for pull-up
// pins and Low for pull-down pins unless set with SetLevel beforehand.
type Driver struct {
	mu       sync.Mutex
	levels   map[uint8]contracts.Level
	preset   map[uint8]bool
	pins     map[uint8]*Pin
	handlers map[uint8]contracts.EdgeHandler
	fail     map[uint8]error
	debounce map[uint8]time.Duration
	closed   bool
}

// NewDriver returns an empty fake driver.
func NewDriver() *Driver {
	return &Driver{
		levels:   make(map[uint8]contracts.Level),
		preset:   make(map[uint8]bool),
		pins:     make(map[uint8]*Pin),
		handlers: make(map[uint8]contracts.EdgeHandler),
		fail:     make(map[uint8]error),
		debounce: make(map[uint8]time.Duration),
	}
}

// FailOn makes acquiring pin return err.
func (d *Driver) FailOn(pin uint8, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[pin] = err
}

// SetLevel sets the level subsequent reads of pin observe.
func (d *Driver) SetLevel(pin uint8, l contracts.Level) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.levels[pin] = l
	d.preset[pin] = true
}

// SetPhase sets an encoder's two pins from a 2-bit A<<1|B value.
func (d *Driver) SetPhase(pinA, pinB uint8, phase uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.levels[pinA] = phase&0b10 != 0
	d.levels[pinB] = phase&0b01 != 0
	d.preset[pinA], d.preset[pinB] = true, true
}

// Fire sets the level of an interrupt pin and invokes its handler with the
// matching edge, the way a driver callback would.
func (d *Driver) Fire(pin uint8, l contracts.Level) bool {
	d.mu.Lock()
	d.levels[pin] = l
	h := d.handlers[pin]
	d.mu.Unlock()
	if h == nil {
		return false
	}
	edge := contracts.EdgeFalling
	if l == contracts.High {
		edge = contracts.EdgeRising
	}
	h(contracts.EdgeEvent{Pin: pin, Edge: edge, Time: time.Now()})
	return true
}

// Acquired reports whether pin is currently held.
func (d *Driver) Acquired(pin uint8) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pins[pin]
	return ok
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) Input(pin uint8, pull contracts.PullMode) (contracts.Pin, error) {
	return d.acquire(pin, pull, nil)
}

// Debounce returns the debounce window pin was last requested with.
func (d *Driver) Debounce(pin uint8) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.debounce[pin]
}

func (d *Driver) Interrupt(pin uint8, pull contracts.PullMode, debounce time.Duration, handler contracts.EdgeHandler) (contracts.Pin, error) {
	if handler == nil {
		return nil, fmt.Errorf("gpiotest: pin %d: nil handler", pin)
	}
	p, err := d.acquire(pin, pull, handler)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.debounce[pin] = debounce
	d.mu.Unlock()
	return p, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Driver) acquire(pin uint8, pull contracts.PullMode, h contracts.EdgeHandler) (contracts.Pin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[pin]; err != nil {
		return nil, err
	}
	if _, busy := d.pins[pin]; busy {
		return nil, fmt.Errorf("%w: %d", ErrPinBusy, pin)
	}
	if !d.preset[pin] {
		d.levels[pin] = pull == contracts.PullUp
	}
	p := &Pin{driver: d, number: pin}
	d.pins[pin] = p
	if h != nil {
		d.handlers[pin] = h
	}
	return p, nil
}

// Pin is a fake acquired pin.
type Pin struct {
	driver  *Driver
	number  uint8
	readErr error
}

// FailReads makes subsequent reads return err.
func (p *Pin) FailReads(err error) {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()
	p.readErr = err
}

func (p *Pin) Number() uint8 { return p.number }

func (p *Pin) Read() (contracts.Level, error) {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()
	if p.readErr != nil {
		return contracts.Low, p.readErr
	}
	return p.driver.levels[p.number], nil
}

func (p *Pin) Close() error {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()
	delete(p.driver.pins, p.number)
	delete(p.driver.handlers, p.number)
	return nil
}
