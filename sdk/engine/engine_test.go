package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leandrodaf/gpio2midi/internal/gpio/gpiotest"
	"github.com/leandrodaf/gpio2midi/internal/logger"
	"github.com/leandrodaf/gpio2midi/internal/midi/miditest"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestEngine(t *testing.T, extra ...contracts.Option) (*Engine, *gpiotest.Driver, *miditest.Recorder) {
	t.Helper()
	drv := gpiotest.NewDriver()
	sink := miditest.NewRecorder()
	opts := append([]contracts.Option{
		contracts.WithLogger(logger.NewNop()),
		contracts.WithGPIODriver(drv),
		contracts.WithSink(sink),
		contracts.WithControls(
			contracts.Button{Pin: 17, CC: 10, Pull: contracts.PullUp},
			contracts.RotaryEncoder{PinA: 5, PinB: 6, CC: 20},
		),
	}, extra...)
	e, err := New(opts...)
	require.NoError(t, err)
	return e, drv, sink
}

func TestApplyDefaultOptions(t *testing.T) {
	opts, err := applyDefaultOptions(contracts.WithLogger(logger.NewNop()))
	require.NoError(t, err)

	assert.Equal(t, 4000.0, opts.PollingRate)
	assert.Equal(t, 256, opts.QueueCapacity)
	assert.Equal(t, contracts.GPIOBackendCdev, opts.GPIOBackend)
	assert.Equal(t, "gpiochip0", opts.GPIOChip)
	assert.Equal(t, contracts.MIDIBackendRtMidi, opts.MIDIBackend)
	assert.Equal(t, "gpio2midi", opts.PortName)
	assert.Equal(t, "/dev/serial0", opts.SerialDevice)
	assert.Zero(t, opts.StatsInterval)
	assert.Zero(t, opts.Channel)
}

func TestLifecycle(t *testing.T) {
	e, drv, sink := newTestEngine(t, contracts.WithChannel(9))
	assert.Equal(t, contracts.StateStarting, e.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return e.State() == contracts.StateRunning }, time.Second, time.Millisecond)

	drv.Fire(17, contracts.Low)
	drv.Fire(17, contracts.High)
	require.Eventually(t, func() bool { return sink.Len() == 2 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, contracts.StateStopped, e.State())
	assert.Equal(t, [][]byte{{0xB9, 10, 127}, {0xB9, 10, 0}}, sink.Messages())
	assert.Equal(t, uint64(2), e.Stats().Sent)

	assert.True(t, sink.Closed())
	assert.True(t, drv.Closed())
	for _, pin := range []uint8{17, 5, 6} {
		assert.False(t, drv.Acquired(pin), "pin %d", pin)
	}

	assert.ErrorIs(t, e.Run(context.Background()), ErrAlreadyRun)
}

func TestCloseWhileRunning(t *testing.T) {
	e, drv, sink := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	require.Eventually(t, func() bool { return e.State() == contracts.StateRunning }, time.Second, time.Millisecond)

	drv.Fire(17, contracts.Low)
	require.NoError(t, e.Close())

	assert.Equal(t, contracts.StateStopped, e.State())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	cancel()
	assert.Equal(t, contracts.StateStopped, e.State(), "stopped is final")

	assert.True(t, sink.Closed())
	assert.True(t, drv.Closed())
	assert.Equal(t, [][]byte{{0xB0, 10, 127}}, sink.Messages(), "queued edge delivered before the sink closed")
	require.NoError(t, e.Close())
}

func TestRunAfterCloseIsRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Run(context.Background()), ErrAlreadyRun)
	assert.Equal(t, contracts.StateStopped, e.State())
}

func TestCloseWithoutRun(t *testing.T) {
	e, drv, sink := newTestEngine(t)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.Equal(t, contracts.StateStopped, e.State())
	assert.True(t, sink.Closed())
	assert.True(t, drv.Closed())
}

func TestNewRejectsBadControls(t *testing.T) {
	drv := gpiotest.NewDriver()
	sink := miditest.NewRecorder()

	_, err := New(
		contracts.WithLogger(logger.NewNop()),
		contracts.WithGPIODriver(drv),
		contracts.WithSink(sink),
		contracts.WithControls(
			contracts.Button{Pin: 17, CC: 10},
			contracts.Button{Pin: 17, CC: 11},
		),
	)
	require.ErrorIs(t, err, contracts.ErrConfig)
	assert.True(t, drv.Closed())
	assert.True(t, sink.Closed(), "injected sink is released with the driver")
	assert.False(t, drv.Acquired(17))
}

func TestNewReportsDriverFailures(t *testing.T) {
	drv := gpiotest.NewDriver()
	drv.FailOn(6, errors.New("busy"))
	sink := miditest.NewRecorder()

	_, err := New(
		contracts.WithLogger(logger.NewNop()),
		contracts.WithGPIODriver(drv),
		contracts.WithSink(sink),
		contracts.WithControls(contracts.RotaryEncoder{PinA: 5, PinB: 6, CC: 1}),
	)
	require.ErrorIs(t, err, contracts.ErrDriver)
	assert.False(t, drv.Acquired(5))
	assert.True(t, sink.Closed())
}

func TestNewRejectsChannel(t *testing.T) {
	_, err := New(
		contracts.WithLogger(logger.NewNop()),
		contracts.WithGPIODriver(gpiotest.NewDriver()),
		contracts.WithSink(miditest.NewRecorder()),
		contracts.WithChannel(16),
	)
	assert.ErrorIs(t, err, contracts.ErrConfig)
}

func TestUnknownBackends(t *testing.T) {
	sink := miditest.NewRecorder()
	_, err := New(
		contracts.WithLogger(logger.NewNop()),
		contracts.WithGPIOBackend("wiringpi"),
		contracts.WithSink(sink),
	)
	require.ErrorIs(t, err, contracts.ErrUnsupportedBackend)
	assert.Contains(t, err.Error(), "wiringpi")
	assert.True(t, sink.Closed())

	drv := gpiotest.NewDriver()
	_, err = New(
		contracts.WithLogger(logger.NewNop()),
		contracts.WithGPIODriver(drv),
		contracts.WithMIDIBackend("jack"),
		contracts.WithControls(contracts.Button{Pin: 4, CC: 1}),
	)
	require.ErrorIs(t, err, contracts.ErrUnsupportedBackend)
	assert.False(t, drv.Acquired(4), "pins released when the sink cannot open")
	assert.True(t, drv.Closed())
}

func TestBackendLists(t *testing.T) {
	assert.Equal(t, []string{"gpiocdev", "periph", "rpio"}, GPIOBackends())
	assert.Equal(t, []string{"coremidi", "rtmidi", "serial"}, MIDIBackends())
}

func TestStartupIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	_, _, _ = newTestEngine(t, contracts.WithLogger(logger.NewFromZap(zap.New(core))))

	assert.Equal(t, 1, logs.FilterMessage("button registered").Len())
	assert.Equal(t, 1, logs.FilterMessage("rotary encoder registered").Len())

	ready := logs.FilterMessage("engine ready").All()
	require.Len(t, ready, 1)
	assert.EqualValues(t, 2, ready[0].ContextMap()["controls"])
	assert.EqualValues(t, 1, ready[0].ContextMap()["channel"])
}
