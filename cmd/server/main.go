package main

import (
	"github.com/joho/godotenv"

	"github.com/gotours/tour-booking-api/internal/config"
	"github.com/gotours/tour-booking-api/internal/database"
	"github.com/gotours/tour-booking-api/internal/email"
	"github.com/gotours/tour-booking-api/internal/image"
	"github.com/gotours/tour-booking-api/internal/logger"
	"github.com/gotours/tour-booking-api/internal/payment"
	"github.com/gotours/tour-booking-api/internal/queue"
	"github.com/gotours/tour-booking-api/internal/repository"
	"github.com/gotours/tour-booking-api/internal/router"
	"github.com/gotours/tour-booking-api/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("server", cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting and caching disabled")
	}

	mail, err := email.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("mailer setup failed")
	}
	if !mail.Enabled() {
		log.Warn().Msg("SMTP not configured, outbound email disabled")
	}

	if cfg.AMQPURL != "" {
		go queue.StartBookingConsumer(cfg.AMQPURL, logger.New("booking-consumer", cfg.Env))
	}

	e := router.New(router.Deps{
		Cfg:      cfg,
		RateCfg:  config.LoadRateLimitConfig(),
		CacheCfg: config.LoadCacheConfig(),
		Log:      log,
		DB:       db,
		Redis:    rdb,
		Users:    repository.NewUserRepo(db),
		Tours:    repository.NewTourRepo(db),
		Reviews:  repository.NewReviewRepo(db),
		Bookings: repository.NewBookingRepo(db),
		Mail:     mail,
		Payments: payment.NewClient(cfg.StripeSecret),
		Events:   service.NewPublisher(cfg.AMQPURL, log),
		Images:   image.NewProcessor(cfg.UploadDir),
	})

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
