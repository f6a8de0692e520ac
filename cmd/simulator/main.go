// Headless pipeline runner: generates readings, detects incidents, and
// resolves them through the work-order simulator without serving HTTP.
// Useful for soak runs and for demos driven purely over MQTT.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/app"
	"github.com/urbansense/smart-city-platform/internal/config"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	platform, err := app.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("platform wiring failed")
	}

	started := platform.StartActiveSensors()
	if started == 0 {
		log.Warn().Msg("no active sensors found; nothing to simulate")
	}
	log.Info().Int("sensors", started).Msg("simulation running, Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	platform.Shutdown(ctx)
}
