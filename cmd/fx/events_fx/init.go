package events_fx

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"milelog/internal/config"
	"milelog/internal/services"
)

var Module = fx.Provide(provideTripEventPublisher)

// provideTripEventPublisher falls back to a no-op publisher when the broker
// is unset or unreachable.
func provideTripEventPublisher(lc fx.Lifecycle, cfg *config.Config) services.TripEventPublisher {
	if !cfg.MQTT.Enabled() {
		return services.NewNoopPublisher()
	}

	publisher, err := services.NewMQTTPublisher(cfg.MQTT)
	if err != nil {
		log.WithError(err).WithField("broker", cfg.MQTT.BrokerURL).Error("MQTT connection failed, trip events disabled")
		return services.NewNoopPublisher()
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher
}
