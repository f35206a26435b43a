// Package registry binds configured controls to acquired GPIO pins and keeps
// their decode state for the lifetime of the process.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leandrodaf/gpio2midi/internal/mapper"
	"github.com/leandrodaf/gpio2midi/internal/quadrature"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"go.uber.org/multierr"
)

// Button is the runtime side of a contracts.Button.
type Button struct {
	CC   uint8
	Pull contracts.PullMode
	Pin  contracts.Pin
}

// Value maps an edge on this button to a CC value.
func (b *Button) Value(edge contracts.Edge) (uint8, bool) {
	return mapper.Button(b.Pull, edge)
}

// Encoder is the runtime side of a contracts.RotaryEncoder. The decode state is
// guarded by mu; only the poll loop mutates it today.
type Encoder struct {
	CC       uint8
	PinA     contracts.Pin
	PinB     contracts.Pin
	Relative bool

	mu      sync.Mutex
	decoder *quadrature.Decoder
	last    quadrature.Phase
	value   uint8
}

// Sample reads both phase pins.
func (e *Encoder) Sample() (quadrature.Phase, error) {
	a, err := e.PinA.Read()
	if err != nil {
		return 0, fmt.Errorf("pin %d: %w", e.PinA.Number(), err)
	}
	b, err := e.PinB.Read()
	if err != nil {
		return 0, fmt.Errorf("pin %d: %w", e.PinB.Number(), err)
	}
	return quadrature.PhaseOf(a, b), nil
}

// Advance feeds a sampled phase. Unchanged pairs return immediately. When a
// detent completes it returns the CC value to send.
func (e *Encoder) Advance(phase quadrature.Phase) (uint8, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if phase == e.last {
		return 0, false
	}
	e.last = phase

	step, ok := e.decoder.Update(phase)
	if !ok {
		return 0, false
	}
	send, next := mapper.Encoder(step, e.Relative, e.value)
	e.value = next
	return send, true
}

// Value returns the stored absolute value.
func (e *Encoder) Value() uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Registry owns every runtime control, keyed by primary pin. It is built once
// and not structurally modified afterwards, so lookups need no locking.
type Registry struct {
	buttons  map[uint8]*Button
	encoders []*Encoder
	pins     []contracts.Pin
}

// Build validates controls in order and acquires their pins from driver.
// Button edges are forwarded to onEdge from the driver's interrupt context.
// On error every pin acquired so far is released.
func Build(controls []contracts.Control, driver contracts.GPIODriver, onEdge contracts.EdgeHandler, log contracts.Logger) (*Registry, error) {
	r := &Registry{buttons: make(map[uint8]*Button)}
	primary := make(map[uint8]int, len(controls))

	for i, c := range controls {
		if err := validate(i, c, primary); err != nil {
			return nil, multierr.Append(err, r.Close())
		}
		primary[c.PrimaryPin()] = i

		switch c := c.(type) {
		case contracts.Button:
			if err := r.addButton(c, driver, onEdge); err != nil {
				return nil, multierr.Append(fmt.Errorf("control %d: %w", i, err), r.Close())
			}
			log.Info("button registered",
				log.Field().Int("index", i),
				log.Field().Uint8("pin", c.Pin),
				log.Field().Uint8("cc", c.CC),
				log.Field().String("pull", c.Pull.String()))
		case contracts.RotaryEncoder:
			enc, err := r.addEncoder(c, driver)
			if err != nil {
				return nil, multierr.Append(fmt.Errorf("control %d: %w", i, err), r.Close())
			}
			log.Info("rotary encoder registered",
				log.Field().Int("index", i),
				log.Field().Uint8("pin_a", c.PinA),
				log.Field().Uint8("pin_b", c.PinB),
				log.Field().Uint8("cc", c.CC),
				log.Field().Bool("relative", c.Relative),
				log.Field().Uint8("value", enc.value))
		}
	}
	return r, nil
}

func validate(i int, c contracts.Control, primary map[uint8]int) error {
	if c == nil {
		return fmt.Errorf("%w: control %d: empty control", contracts.ErrConfig, i)
	}
	if cc := c.ControlNumber(); cc > contracts.MaxValue {
		return fmt.Errorf("%w: control %d: cc %d out of range [0,127]", contracts.ErrConfig, i, cc)
	}
	if prev, dup := primary[c.PrimaryPin()]; dup {
		return fmt.Errorf("%w: control %d: pin %d already used by control %d", contracts.ErrConfig, i, c.PrimaryPin(), prev)
	}
	if b, ok := c.(contracts.Button); ok {
		if b.Pull != contracts.PullUp && b.Pull != contracts.PullDown {
			return fmt.Errorf("%w: control %d: unknown pull mode %d", contracts.ErrConfig, i, b.Pull)
		}
		if b.Debounce < 0 {
			return fmt.Errorf("%w: control %d: negative debounce %s", contracts.ErrConfig, i, b.Debounce)
		}
	}
	if enc, ok := c.(contracts.RotaryEncoder); ok {
		if enc.PinA == enc.PinB {
			return fmt.Errorf("%w: control %d: pin_a and pin_b are both %d", contracts.ErrConfig, i, enc.PinA)
		}
		switch enc.StepsPerDetent {
		case 0, 1, 2, 4:
		default:
			return fmt.Errorf("%w: control %d: steps_per_detent %d not in {1,2,4}", contracts.ErrConfig, i, enc.StepsPerDetent)
		}
		if enc.InitialValue != nil && *enc.InitialValue > contracts.MaxValue {
			return fmt.Errorf("%w: control %d: initial_value %d out of range [0,127]", contracts.ErrConfig, i, *enc.InitialValue)
		}
	}
	return nil
}

func (r *Registry) addButton(c contracts.Button, driver contracts.GPIODriver, onEdge contracts.EdgeHandler) error {
	pin, err := driver.Interrupt(c.Pin, c.Pull, c.Debounce, onEdge)
	if err != nil {
		return fmt.Errorf("%w: button pin %d: %v", contracts.ErrDriver, c.Pin, err)
	}
	r.pins = append(r.pins, pin)
	r.buttons[c.Pin] = &Button{CC: c.CC, Pull: c.Pull, Pin: pin}
	return nil
}

func (r *Registry) addEncoder(c contracts.RotaryEncoder, driver contracts.GPIODriver) (*Encoder, error) {
	a, err := driver.Input(c.PinA, contracts.PullUp)
	if err != nil {
		return nil, fmt.Errorf("%w: encoder pin_a %d: %v", contracts.ErrDriver, c.PinA, err)
	}
	r.pins = append(r.pins, a)
	b, err := driver.Input(c.PinB, contracts.PullUp)
	if err != nil {
		return nil, fmt.Errorf("%w: encoder pin_b %d: %v", contracts.ErrDriver, c.PinB, err)
	}
	r.pins = append(r.pins, b)

	enc := &Encoder{CC: c.CC, PinA: a, PinB: b, Relative: c.Relative, value: contracts.CenterValue}
	if c.InitialValue != nil {
		enc.value = *c.InitialValue
	}
	phase, err := enc.Sample()
	if err != nil {
		return nil, fmt.Errorf("%w: encoder %d/%d initial read: %v", contracts.ErrDriver, c.PinA, c.PinB, err)
	}

	opts := []quadrature.Option{quadrature.WithStepsPerDetent(c.StepsPerDetent)}
	if c.Reverse {
		opts = append(opts, quadrature.WithReverse())
	}
	enc.decoder = quadrature.NewDecoder(phase, opts...)
	enc.last = phase
	r.encoders = append(r.encoders, enc)
	return enc, nil
}

// Button returns the button registered on pin.
func (r *Registry) Button(pin uint8) (*Button, bool) {
	b, ok := r.buttons[pin]
	return b, ok
}

// ButtonPins returns the registered button pins in ascending order.
func (r *Registry) ButtonPins() []uint8 {
	pins := make([]uint8, 0, len(r.buttons))
	for p := range r.buttons {
		pins = append(pins, p)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i] < pins[j] })
	return pins
}

// Encoders returns the encoders in configuration order.
func (r *Registry) Encoders() []*Encoder {
	return r.encoders
}

// Len is the number of registered controls.
func (r *Registry) Len() int {
	return len(r.buttons) + len(r.encoders)
}

// Close releases every acquired pin.
func (r *Registry) Close() error {
	var err error
	for i := len(r.pins) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.pins[i].Close())
	}
	r.pins = nil
	return err
}
