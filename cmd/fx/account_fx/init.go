package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
	"milelog/internal/config"
	"milelog/internal/repositories"
	"milelog/internal/services"
	mem "milelog/pkg/memcache"
	"milelog/pkg/utils"
)

var Module = fx.Provide(
	provideAccountService, provideAccountRepo)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideAccountService(
	accountRepo repositories.AccountRepository,
	codes mem.VerificationCodeStore,
	sms services.ISMSService,
	clock utils.Clock,
	cfg *config.Config,
) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, codes, sms, clock, []byte(cfg.JWTSecret))
}
