package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"milelog/cmd/fx/account_fx"
	"milelog/cmd/fx/config_fx"
	"milelog/cmd/fx/controllers_fx"
	"milelog/cmd/fx/db_fx"
	"milelog/cmd/fx/events_fx"
	"milelog/cmd/fx/memcache_fx"
	"milelog/cmd/fx/sms_fx"
	"milelog/cmd/fx/trip_fx"
	"milelog/internal/api/controllers"
	"milelog/internal/config"
	"milelog/pkg/middleware"
	"milelog/pkg/utils"
)

// Login and code endpoints allow authLimit requests per client per authWindow.
const (
	authLimit  = 10
	authWindow = time.Minute
)

func main() {
	app := fx.New(
		config_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		sms_fx.Module,
		events_fx.Module,
		account_fx.Module,
		trip_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideAuthLimiter),
		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config) {
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.WithField("port", cfg.Port).Info("Starting HTTP server")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Fatal("Failed to start server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}

func ProvideAuthLimiter(lc fx.Lifecycle) *middleware.RateLimiter {
	limiter := middleware.NewRateLimiter(authLimit, authWindow, time.Now)
	stop := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(authWindow)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						limiter.Cleanup()
					case <-stop:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			return nil
		},
	})
	return limiter
}

func ProvideRouter(
	cfg *config.Config,
	clock utils.Clock,
	db *gorm.DB,
	limiter *middleware.RateLimiter,
	tripController *controllers.TripController,
	accountController *controllers.AccountController) *gin.Engine {

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.Logger())
	r.Use(middleware.IdentityMiddleware([]byte(cfg.JWTSecret), clock))

	RegisterRoutes(r, db, limiter, tripController, accountController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	db *gorm.DB,
	limiter *middleware.RateLimiter,
	tripController *controllers.TripController,
	accountController *controllers.AccountController) {

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	accountGroup := r.Group("/accounts")
	accountGroup.POST("/register", accountController.Register)
	accountGroup.POST("/login", limiter.Middleware(), accountController.Login)
	accountGroup.POST("/send-code", limiter.Middleware(), accountController.SendCode)
	accountGroup.POST("/verify-code", limiter.Middleware(), accountController.VerifyCode)

	categoryGroup := r.Group("/categories", middleware.RequireIdentity())
	categoryGroup.GET("", accountController.GetCategories)
	categoryGroup.POST("", accountController.AddCategory)

	tripGroup := r.Group("/trips", middleware.RequireIdentity())
	tripGroup.POST("", tripController.IngestTrip)
	tripGroup.GET("", tripController.ListTrips)
	tripGroup.GET("/clients", tripController.ListClients)
	tripGroup.GET("/deduction", tripController.GetDeduction)
	tripGroup.GET("/export", tripController.ExportTrips)
	tripGroup.PUT("/:id", tripController.UpdateTrip)
	tripGroup.DELETE("/:id", tripController.DeleteTrip)
}
