package contracts

import "time"

// Backend names accepted by WithGPIOBackend and WithMIDIBackend.
const (
	GPIOBackendCdev   = "gpiocdev"
	GPIOBackendPeriph = "periph"
	GPIOBackendRPIO   = "rpio"

	MIDIBackendRtMidi   = "rtmidi"
	MIDIBackendSerial   = "serial"
	MIDIBackendCoreMIDI = "coremidi"
)

// EngineOptions defines the configuration options for the engine.
type EngineOptions struct {
	Logger   Logger   // Logger for lifecycle events and errors.
	LogLevel LogLevel // Level of logging to use.

	Controls []Control // Controls to register, in configuration order.
	Channel  uint8     // Zero-based MIDI channel for outgoing messages.

	PollingRate   float64       // Encoder poll loop frequency in Hz.
	QueueCapacity int           // Bounded interrupt event queue size.
	StatsInterval time.Duration // How often counters are logged; zero disables.

	GPIODriver  GPIODriver // Used as-is when set; otherwise built from GPIOBackend.
	GPIOBackend string     // Name of the GPIO backend.
	GPIOChip    string     // Character device name for the gpiocdev backend.

	Sink         Sink   // Used as-is when set; otherwise built from MIDIBackend.
	MIDIBackend  string // Name of the MIDI sink backend.
	PortName     string // Virtual MIDI port name.
	SerialDevice string // UART device for the serial backend.
}

// Option is a function that modifies EngineOptions.
type Option func(*EngineOptions)

// WithLogger sets the logger for the engine.
func WithLogger(l Logger) Option {
	return func(opts *EngineOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the engine.
func WithLogLevel(level LogLevel) Option {
	return func(opts *EngineOptions) {
		opts.LogLevel = level
	}
}

// WithControls sets the controls to register.
func WithControls(controls ...Control) Option {
	return func(opts *EngineOptions) {
		opts.Controls = append(opts.Controls, controls...)
	}
}

// WithChannel sets the zero-based MIDI channel (0-15).
func WithChannel(channel uint8) Option {
	return func(opts *EngineOptions) {
		opts.Channel = channel
	}
}

// WithPollingRate sets the encoder poll frequency in Hz.
func WithPollingRate(hz float64) Option {
	return func(opts *EngineOptions) {
		opts.PollingRate = hz
	}
}

// WithQueueCapacity sets the size of the interrupt event queue.
func WithQueueCapacity(n int) Option {
	return func(opts *EngineOptions) {
		opts.QueueCapacity = n
	}
}

// WithStatsInterval sets how often dispatcher counters are logged.
func WithStatsInterval(d time.Duration) Option {
	return func(opts *EngineOptions) {
		opts.StatsInterval = d
	}
}

// WithGPIODriver injects an already opened GPIO driver.
func WithGPIODriver(d GPIODriver) Option {
	return func(opts *EngineOptions) {
		opts.GPIODriver = d
	}
}

// WithGPIOBackend selects the GPIO backend by name.
func WithGPIOBackend(name string) Option {
	return func(opts *EngineOptions) {
		opts.GPIOBackend = name
	}
}

// WithGPIOChip sets the GPIO character device used by the gpiocdev backend.
func WithGPIOChip(chip string) Option {
	return func(opts *EngineOptions) {
		opts.GPIOChip = chip
	}
}

// WithSink injects an already opened MIDI sink.
func WithSink(s Sink) Option {
	return func(opts *EngineOptions) {
		opts.Sink = s
	}
}

// WithMIDIBackend selects the MIDI sink backend by name.
func WithMIDIBackend(name string) Option {
	return func(opts *EngineOptions) {
		opts.MIDIBackend = name
	}
}

// WithPortName sets the virtual MIDI port name.
func WithPortName(name string) Option {
	return func(opts *EngineOptions) {
		opts.PortName = name
	}
}

// WithSerialDevice sets the UART used by the serial backend.
func WithSerialDevice(dev string) Option {
	return func(opts *EngineOptions) {
		opts.SerialDevice = dev
	}
}
