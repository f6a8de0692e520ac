// Ingestor bridges real sensor hardware into the pipeline: readings
// published to city/readings go through the same persistence and
// incident detection as simulated ones.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urbansense/smart-city-platform/internal/app"
	"github.com/urbansense/smart-city-platform/internal/config"
	"github.com/urbansense/smart-city-platform/internal/domain"
)

const readingsTopic = "city/readings"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	platform, err := app.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("platform wiring failed")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect failed")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var rd domain.Reading
		if err := json.Unmarshal(msg.Payload(), &rd); err != nil {
			log.Error().Err(err).Msg("reading payload invalid")
			return
		}
		if rd.SensorID == "" {
			log.Error().Msg("reading missing sensor id")
			return
		}
		if rd.ID == "" {
			rd.ID = uuid.NewString()
		}
		if rd.Timestamp.IsZero() {
			rd.Timestamp = time.Now()
		}
		if err := platform.Repos.Readings.BatchInsert([]*domain.Reading{&rd}); err != nil {
			log.Error().Err(err).Str("sensor_id", rd.SensorID).Msg("reading persist failed")
			return
		}
		platform.Registry.SetLastReading(&rd)
		platform.Detector.ProcessReading(context.Background(), &rd)
	}

	if token := client.Subscribe(readingsTopic, 0, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", readingsTopic).Msg("ingestor running, Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	platform.Shutdown(ctx)
}
