//go:build linux
// +build linux

// Package gpiocdev drives pins through the Linux GPIO character device.
package gpiocdev

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// DefaultChip is the SoC GPIO controller on Raspberry Pi boards.
const DefaultChip = "gpiochip0"

const consumer = "gpio2midi"

// Driver requests one line per pin from a single chip.
type Driver struct {
	logger contracts.Logger
	chip   string

	mu    sync.Mutex
	lines map[uint8]*pin
}

// New returns a driver for chip. An empty chip selects DefaultChip.
func New(chip string, logger contracts.Logger) (contracts.GPIODriver, error) {
	if chip == "" {
		chip = DefaultChip
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", contracts.ErrDriver, chip, err)
	}
	logger.Info("GPIO chip opened",
		logger.Field().String("chip", chip),
		logger.Field().Int("lines", c.Lines()))
	if err := c.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %v", contracts.ErrDriver, chip, err)
	}

	return &Driver{logger: logger, chip: chip, lines: make(map[uint8]*pin)}, nil
}

func (d *Driver) Input(n uint8, pull contracts.PullMode) (contracts.Pin, error) {
	return d.request(n, gpiocdev.AsInput, biasOption(pull))
}

func (d *Driver) Interrupt(n uint8, pull contracts.PullMode, debounce time.Duration, handler contracts.EdgeHandler) (contracts.Pin, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		biasOption(pull),
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			handler(contracts.EdgeEvent{Pin: n, Edge: edgeOf(evt.Type), Time: time.Now()})
		}),
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}
	return d.request(n, opts...)
}

func (d *Driver) request(n uint8, opts ...gpiocdev.LineReqOption) (contracts.Pin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.lines[n]; busy {
		return nil, fmt.Errorf("line %d already requested", n)
	}
	opts = append(opts, gpiocdev.WithConsumer(consumer))
	line, err := gpiocdev.RequestLine(d.chip, int(n), opts...)
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", d.chip, n, err)
	}
	p := &pin{driver: d, number: n, line: line}
	d.lines[n] = p
	return p, nil
}

// Close releases any line the caller did not close.
func (d *Driver) Close() error {
	d.mu.Lock()
	lines := d.lines
	d.lines = make(map[uint8]*pin)
	d.mu.Unlock()

	var err error
	for _, p := range lines {
		err = multierr.Append(err, p.line.Close())
	}
	return err
}

func biasOption(pull contracts.PullMode) gpiocdev.LineReqOption {
	if pull == contracts.PullUp {
		return gpiocdev.WithPullUp
	}
	return gpiocdev.WithPullDown
}

func edgeOf(t gpiocdev.LineEventType) contracts.Edge {
	switch t {
	case gpiocdev.LineEventRisingEdge:
		return contracts.EdgeRising
	case gpiocdev.LineEventFallingEdge:
		return contracts.EdgeFalling
	default:
		return contracts.EdgeNone
	}
}

type pin struct {
	driver *Driver
	number uint8
	line   *gpiocdev.Line
}

func (p *pin) Number() uint8 { return p.number }

func (p *pin) Read() (contracts.Level, error) {
	v, err := p.line.Value()
	if err != nil {
		return contracts.Low, err
	}
	return v != 0, nil
}

func (p *pin) Close() error {
	p.driver.mu.Lock()
	_, owned := p.driver.lines[p.number]
	delete(p.driver.lines, p.number)
	p.driver.mu.Unlock()
	if !owned {
		return nil
	}
	return p.line.Close()
}
