package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/gpio2midi/internal/logger"
	"github.com/leandrodaf/gpio2midi/sdk/contracts"
	"github.com/leandrodaf/gpio2midi/sdk/engine"
)

func main() {
	log := logger.NewZapLogger()

	start := uint8(0)
	e, err := engine.New(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.DebugLevel),
		contracts.WithControls(
			contracts.Button{Pin: 17, CC: 64, Pull: contracts.PullUp, Debounce: contracts.DefaultButtonDebounce},
			contracts.RotaryEncoder{PinA: 5, PinB: 6, CC: 7, InitialValue: &start},
			contracts.RotaryEncoder{PinA: 13, PinB: 19, CC: 10, Relative: true, StepsPerDetent: 2},
		),
		contracts.WithPortName("gpio2midi example"),
		contracts.WithStatsInterval(10*time.Second),
	)
	if err != nil {
		log.Error("Failed to initialize engine", log.Field().Error("error", err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("Sending Control Change messages... Press Ctrl+C to exit.")
	if err := e.Run(ctx); err != nil {
		log.Error("Engine stopped with errors", log.Field().Error("error", err))
	}
}
