package engine

import (
	"github.com/leandrodaf/gpio2midi/internal/dispatcher"
	"github.com/leandrodaf/gpio2midi/internal/gpio/gpiocdev"
	"github.com/leandrodaf/gpio2midi/internal/logger"
	"github.com/leandrodaf/gpio2midi/internal/midi/serialmidi"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
)

// DefaultPortName is the virtual MIDI port name used when none is given.
const DefaultPortName = "gpio2midi"

// applyDefaultOptions sets default values for EngineOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.EngineOptions, error) {
	options := &contracts.EngineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.PollingRate <= 0 {
		options.PollingRate = dispatcher.DefaultPollingRate
	}
	if options.QueueCapacity <= 0 {
		options.QueueCapacity = dispatcher.DefaultQueueCapacity
	}
	if options.GPIOBackend == "" {
		options.GPIOBackend = contracts.GPIOBackendCdev
	}
	if options.GPIOChip == "" {
		options.GPIOChip = gpiocdev.DefaultChip
	}
	if options.MIDIBackend == "" {
		options.MIDIBackend = contracts.MIDIBackendRtMidi
	}
	if options.PortName == "" {
		options.PortName = DefaultPortName
	}
	if options.SerialDevice == "" {
		options.SerialDevice = serialmidi.DefaultDevice
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
