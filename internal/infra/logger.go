package infra

import (
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"milelog/internal/config"
)

// InitLogger configures the global logrus logger.
func InitLogger(cfg *config.Config) {
	log.SetOutput(os.Stdout)
	if cfg.GinMode == gin.ReleaseMode {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
