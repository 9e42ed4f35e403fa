package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port        string
	PostgresURL string
	JWTSecret   string
	Timezone    string
	DBTimeout   time.Duration
	LogLevel    string
	GinMode     string

	Twilio TwilioConfig
	MQTT   MQTTConfig
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != ""
}

type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
}

func (m MQTTConfig) Enabled() bool { return m.BrokerURL != "" }

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	return &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		PostgresURL: os.Getenv("POSTGRES_URL"),
		JWTSecret:   getEnvWithDefault("JWT_SECRET", "change-me-in-production"),
		Timezone:    getEnvWithDefault("APP_TIMEZONE", "Local"),
		DBTimeout:   getDurationWithDefault("DB_TIMEOUT", 5*time.Second),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		GinMode:     getEnvWithDefault("GIN_MODE", "debug"),
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_FROM"),
		},
		MQTT: MQTTConfig{
			BrokerURL:   os.Getenv("MQTT_BROKER_URL"),
			ClientID:    getEnvWithDefault("MQTT_CLIENT_ID", "milelog-api"),
			TopicPrefix: strings.TrimRight(getEnvWithDefault("MQTT_TOPIC_PREFIX", "milelog"), "/"),
		},
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.WithField("key", key).Warnf("Invalid duration %q, using %s", raw, defaultValue)
		return defaultValue
	}
	return d
}
