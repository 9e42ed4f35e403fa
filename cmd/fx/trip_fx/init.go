package trip_fx

import (
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"milelog/internal/config"
	"milelog/internal/repositories"
	"milelog/internal/services"
	"milelog/pkg/utils"
)

var Module = fx.Provide(
	provideTripRepo, provideTripService)

func provideTripRepo(db *gorm.DB) repositories.TripRepository {
	return repositories.NewTripRepository(db)
}

func provideTripService(
	tripRepo repositories.TripRepository,
	accountRepo repositories.AccountRepository,
	events services.TripEventPublisher,
	clock utils.Clock,
	loc *time.Location,
	cfg *config.Config,
) services.TripServiceInterface {
	return services.NewTripService(tripRepo, accountRepo, events, clock, loc, cfg.DBTimeout)
}
