package sms_fx

import (
	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"milelog/internal/config"
	"milelog/internal/services"
	mem "milelog/pkg/memcache"
)

var Module = fx.Provide(provideSMSService)

func provideSMSService(cfg *config.Config) services.ISMSService {
	if !cfg.Twilio.Enabled() {
		log.Warn("Twilio is not configured, verification codes will only be logged")
		return services.NewLogSMSService(mem.DefaultCodeTTL)
	}
	return services.NewTwilioSMSService(cfg.Twilio, mem.DefaultCodeTTL)
}
