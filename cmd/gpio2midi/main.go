// Command gpio2midi turns buttons and rotary encoders on GPIO pins into MIDI
// Control Change messages on a virtual port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leandrodaf/gpio2midi/internal/config"
	"github.com/leandrodaf/gpio2midi/internal/dispatcher"
	"github.com/leandrodaf/gpio2midi/internal/gpio/gpiocdev"
	"github.com/leandrodaf/gpio2midi/internal/logger"
	"github.com/leandrodaf/gpio2midi/internal/midi/serialmidi"
	"github.com/leandrodaf/gpio2midi/internal/sysprio"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/leandrodaf/gpio2midi/sdk/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	config        string
	port          string
	pollingRate   float64
	gpio          string
	gpioChip      string
	midi          string
	serialDevice  string
	queueSize     int
	logLevel      string
	nice          int
	statsInterval time.Duration
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("gpio2midi", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.config, "config", "", "path to the TOML mapping file (default ~/"+config.FileName+")")
	fs.StringVar(&f.port, "port", engine.DefaultPortName, "virtual MIDI port name")
	fs.Float64Var(&f.pollingRate, "polling-rate", dispatcher.DefaultPollingRate, "encoder polling rate in Hz")
	fs.StringVar(&f.gpio, "gpio", contracts.GPIOBackendCdev, "GPIO backend: "+strings.Join(engine.GPIOBackends(), "|"))
	fs.StringVar(&f.gpioChip, "gpio-chip", gpiocdev.DefaultChip, "GPIO character device for the gpiocdev backend")
	fs.StringVar(&f.midi, "midi", contracts.MIDIBackendRtMidi, "MIDI backend: "+strings.Join(engine.MIDIBackends(), "|"))
	fs.StringVar(&f.serialDevice, "serial-device", serialmidi.DefaultDevice, "UART for the serial MIDI backend")
	fs.IntVar(&f.queueSize, "queue-size", dispatcher.DefaultQueueCapacity, "interrupt event queue capacity")
	fs.StringVar(&f.logLevel, "log-level", "info", "debug|info|warn|error")
	fs.IntVar(&f.nice, "nice", 0, "process nice value, 0 leaves it unchanged")
	fs.DurationVar(&f.statsInterval, "stats-interval", 30*time.Second, "how often counters are logged, 0 disables")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if f.pollingRate <= 0 {
		return nil, fmt.Errorf("polling-rate must be positive, got %v", f.pollingRate)
	}
	if f.queueSize <= 0 {
		return nil, fmt.Errorf("queue-size must be positive, got %d", f.queueSize)
	}
	return f, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "gpio2midi:", err)
		return 1
	}

	level, ok := contracts.ParseLogLevel(f.logLevel)
	if !ok {
		fmt.Fprintf(stderr, "gpio2midi: unknown log level %q\n", f.logLevel)
		return 1
	}

	path := f.config
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			fmt.Fprintln(stderr, "gpio2midi:", err)
			return 1
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(stderr, "gpio2midi:", err)
		return 1
	}

	log := logger.NewZapLogger()
	defer func() { _ = log.Sync() }()
	log.SetLevel(level)

	log.Info("configuration loaded",
		log.Field().String("path", path),
		log.Field().Int("controls", len(cfg.Controls)))
	for _, key := range cfg.Unknown {
		log.Warn("unknown configuration key ignored", log.Field().String("key", key))
	}

	if err := sysprio.Set(f.nice); err != nil {
		log.Warn("could not change process priority", log.Field().Error("error", err))
	}

	e, err := engine.New(
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithControls(cfg.Controls...),
		contracts.WithChannel(cfg.Channel),
		contracts.WithPollingRate(f.pollingRate),
		contracts.WithQueueCapacity(f.queueSize),
		contracts.WithStatsInterval(f.statsInterval),
		contracts.WithGPIOBackend(f.gpio),
		contracts.WithGPIOChip(f.gpioChip),
		contracts.WithMIDIBackend(f.midi),
		contracts.WithPortName(f.port),
		contracts.WithSerialDevice(f.serialDevice),
	)
	if err != nil {
		log.Error("startup failed", log.Field().Error("error", err))
		fmt.Fprintln(stderr, "gpio2midi:", err)
		return 1
	}

	if err := e.Run(ctx); err != nil {
		fmt.Fprintln(stderr, "gpio2midi:", err)
		return 1
	}
	return 0
}
