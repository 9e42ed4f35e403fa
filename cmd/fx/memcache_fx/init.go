package memcache_fx

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"
	mem "milelog/pkg/memcache"
)

const sweepInterval = time.Minute

var Module = fx.Provide(provideVerificationCodes)

func provideVerificationCodes(lc fx.Lifecycle) mem.VerificationCodeStore {
	codes := mem.NewVerificationCodes(mem.DefaultCodeTTL, mem.DefaultMaxAttempts, time.Now)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			codes.StartJanitor(sweepInterval, func(removed int) {
				if removed > 0 {
					log.WithField("removed", removed).Debug("Swept expired verification codes")
				}
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			codes.StopJanitor()
			return nil
		},
	})
	return codes
}
