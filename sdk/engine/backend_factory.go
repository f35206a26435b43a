package engine

import (
	"fmt"
	"sort"

	"github.com/leandrodaf/gpio2midi/internal/gpio/gpiocdev"
	"github.com/leandrodaf/gpio2midi/internal/gpio/periph"
	"github.com/leandrodaf/gpio2midi/internal/gpio/rpio"
	"github.com/leandrodaf/gpio2midi/internal/midi/mididarwin"
	"github.com/leandrodaf/gpio2midi/internal/midi/rtmidi"
	"github.com/leandrodaf/gpio2midi/internal/midi/serialmidi"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
)

// gpioInitializers maps backend names to GPIO driver constructors.
var gpioInitializers = map[string]func(*contracts.EngineOptions) (contracts.GPIODriver, error){
	contracts.GPIOBackendCdev: func(o *contracts.EngineOptions) (contracts.GPIODriver, error) {
		return gpiocdev.New(o.GPIOChip, o.Logger)
	},
	contracts.GPIOBackendPeriph: func(o *contracts.EngineOptions) (contracts.GPIODriver, error) {
		return periph.New(o.Logger)
	},
	contracts.GPIOBackendRPIO: func(o *contracts.EngineOptions) (contracts.GPIODriver, error) {
		return rpio.New(o.Logger)
	},
}

// sinkInitializers maps backend names to MIDI sink constructors.
var sinkInitializers = map[string]func(*contracts.EngineOptions) (contracts.Sink, error){
	contracts.MIDIBackendRtMidi: func(o *contracts.EngineOptions) (contracts.Sink, error) {
		return rtmidi.New(o.PortName, o.Logger)
	},
	contracts.MIDIBackendSerial: func(o *contracts.EngineOptions) (contracts.Sink, error) {
		return serialmidi.Open(o.SerialDevice, o.Logger)
	},
	contracts.MIDIBackendCoreMIDI: func(o *contracts.EngineOptions) (contracts.Sink, error) {
		return mididarwin.New(o.PortName, o.Logger)
	},
}

// NewGPIODriver opens the GPIO backend named by opts.GPIOBackend.
func NewGPIODriver(opts *contracts.EngineOptions) (contracts.GPIODriver, error) {
	if initializer, exists := gpioInitializers[opts.GPIOBackend]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: gpio %q (have %v)", contracts.ErrUnsupportedBackend, opts.GPIOBackend, GPIOBackends())
}

// NewSink opens the MIDI backend named by opts.MIDIBackend.
func NewSink(opts *contracts.EngineOptions) (contracts.Sink, error) {
	if initializer, exists := sinkInitializers[opts.MIDIBackend]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: midi %q (have %v)", contracts.ErrUnsupportedBackend, opts.MIDIBackend, MIDIBackends())
}

// GPIOBackends lists the registered GPIO backend names.
func GPIOBackends() []string { return keys(gpioInitializers) }

// MIDIBackends lists the registered MIDI backend names.
func MIDIBackends() []string { return keys(sinkInitializers) }

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
