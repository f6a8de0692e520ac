package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/app"
	"github.com/urbansense/smart-city-platform/internal/config"
	httpHandlers "github.com/urbansense/smart-city-platform/internal/http"
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
	log.Info().Int("sensors", started).Msg("simulation running")

	fiberApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	fiberApp.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	httpHandlers.Register(fiberApp, platform.Services)

	go func() {
		addr := config.APIAddr()
		log.Info().Str("addr", addr).Msg("api listening")
		if err := fiberApp.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("server exit")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiberApp.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
	platform.Shutdown(ctx)
	log.Info().Msg("bye")
}
