package main

import (
	"fmt"
	"log/slog"
	"mindsupremacy-payments/internal/client"
	"mindsupremacy-payments/internal/config"
	"mindsupremacy-payments/internal/mailer"
	"mindsupremacy-payments/internal/repository"
	"mindsupremacy-payments/internal/server"
	"mindsupremacy-payments/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func newLogger(cfg *config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func newGatewayClient(cfg *config.Config) (client.GatewayClient, error) {
	switch cfg.Gateway {
	case "razorpay":
		return client.NewRazorpayClient(&cfg.Razorpay), nil
	case "cashfree":
		return client.NewCashfreeClient(&cfg.Cashfree, cfg.Environment.Name, cfg.FrontendURL, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Gateway)
	}
}

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

	logger := newLogger(&cfg.Log)
	slog.SetDefault(logger)

	gateway, err := newGatewayClient(cfg)
	if err != nil {
		logger.Error("gateway setup failed", "error", err)
		os.Exit(1)
	}

	db := client.InitMysqlClient(cfg.DatabaseURL)

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	smtpMailer := mailer.NewSMTPMailer(&cfg.SMTP)

	checkoutService := service.NewCheckoutService(
		db,
		gateway,
		orderRepo,
		paymentRepo,
		webhookEventRepo,
		smtpMailer,
		logger,
		cfg.Order.MinAmount,
		time.Duration(cfg.Order.TTLHours)*time.Hour,
	)

	sweeper, err := service.StartExpirySweeper(checkoutService, logger)
	if err != nil {
		logger.Error("expiry sweeper setup failed", "error", err)
		os.Exit(1)
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(checkoutService, cfg.JWTSecret, logger)

	logger.Info("starting HTTP server", "addr", serverAddr, "gateway", gateway.Name(), "env", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := sweeper.Shutdown(); err != nil {
		logger.Error("sweeper shutdown error", "error", err)
	}

	if err := srv.Shutdown(); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		os.Exit(1)
	}
}
