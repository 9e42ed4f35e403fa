package config_fx

import (
	"time"

	"go.uber.org/fx"
	"milelog/internal/config"
	"milelog/internal/infra"
	"milelog/pkg/utils"
)

var Module = fx.Options(
	fx.Provide(config.Load, provideLocation, provideClock),
	fx.Invoke(infra.InitLogger),
)

func provideLocation(cfg *config.Config) (*time.Location, error) {
	return utils.LoadLocation(cfg.Timezone)
}

func provideClock() utils.Clock {
	return utils.SystemClock{}
}
