package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"premium-blog-api/internal/client"
	"premium-blog-api/internal/config"
	"premium-blog-api/internal/repository"
	"premium-blog-api/internal/server"
	"premium-blog-api/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	db := client.InitSqliteClient(cfg.DatabaseURL)
	stripeClient := client.NewStripeClient(&cfg.Stripe, cfg.BaseURL)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	grantRepo := repository.NewGrantRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	billingService := service.NewBillingService(
		db, stripeClient, cfg.Stripe.WebhookSecret,
		userRepo,
		grantRepo,
		webhookEventRepo,
	)
	contentService := service.NewContentService(postRepo, userRepo)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(cfg.Auth.JWTSecret, billingService, contentService, authService)

	log.Info().Str("addr", serverAddr).Msg("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info().Msg("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("HTTP server shutdown error")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Human-readable output in development, JSON everywhere else.
	if cfg.Log.Format == "console" || cfg.Environment.Name == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
