package logger

import (
	"errors"
	"testing"

	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Info("button registered",
		log.Field().Uint8("pin", 17),
		log.Field().Uint8("cc", 10),
		log.Field().String("pull", "pull-up"))
	log.Warn("send failed", log.Field().Error("error", errors.New("port closed")))

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "button registered", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.EqualValues(t, 17, ctx["pin"])
	assert.EqualValues(t, 10, ctx["cc"])
	assert.Equal(t, "pull-up", ctx["pull"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "port closed", entries[1].ContextMap()["error"])
}

func TestZapLoggerSetLevelFiltersEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.SetLevel(contracts.WarnLevel)
	log.Debug("dropped")
	log.Info("dropped too")
	log.Error("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]contracts.LogLevel{
		"debug": contracts.DebugLevel,
		"info":  contracts.InfoLevel,
		"":      contracts.InfoLevel,
		"warn":  contracts.WarnLevel,
		"error": contracts.ErrorLevel,
	} {
		got, ok := contracts.ParseLogLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := contracts.ParseLogLevel("verbose")
	assert.False(t, ok)
}

func TestZapLoggerFatalSurvivesFatalLevelFilter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core)).(*ZapLogger)
	code := -1
	log.exit = func(c int) { code = c }

	log.SetLevel(contracts.FatalLevel)
	log.Error("filtered out")
	log.Fatal("cannot open MIDI port", log.Field().String("port", "gpio2midi"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.FatalLevel, entries[0].Level)
	assert.Equal(t, "cannot open MIDI port", entries[0].Message)
	assert.Equal(t, "gpio2midi", entries[0].ContextMap()["port"])
	assert.Equal(t, 1, code)
}
