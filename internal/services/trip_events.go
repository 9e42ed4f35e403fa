package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"milelog/internal/config"
)

const (
	EventTripUpserted = "trip.upserted"
	EventTripDeleted  = "trip.deleted"
)

type TripEvent struct {
	Type    string    `json:"type"`
	TripID  uint      `json:"trip_id"`
	UserID  uint      `json:"user_id"`
	Updated bool      `json:"updated"`
	At      time.Time `json:"at"`
}

// TripEventPublisher announces trip changes to other consumers (sync
// clients, reporting). Delivery is best effort.
type TripEventPublisher interface {
	Publish(ctx context.Context, event TripEvent) error
	Close()
}

type noopPublisher struct{}

func NewNoopPublisher() TripEventPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, TripEvent) error { return nil }
func (noopPublisher) Close()                                   {}

const publishTimeout = 2 * time.Second

type mqttPublisher struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTTPublisher connects to the broker in cfg.
func NewMQTTPublisher(cfg config.MQTTConfig) (TripEventPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8])).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	log.WithField("broker", cfg.BrokerURL).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, cfg.TopicPrefix), nil
}

func newMQTTPublisher(client mqtt.Client, topicPrefix string) *mqttPublisher {
	return &mqttPublisher{client: client, topicPrefix: topicPrefix}
}

func (p *mqttPublisher) topic(userID uint) string {
	return fmt.Sprintf("%s/%d/trips", p.topicPrefix, userID)
}

func (p *mqttPublisher) Publish(ctx context.Context, event TripEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	token := p.client.Publish(p.topic(event.UserID), 1, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish %s timed out", event.Type)
	}
	return token.Error()
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(250)
}
