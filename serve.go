package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"stocks-simulator/accounts"
	"stocks-simulator/config"
	"stocks-simulator/database"
	"stocks-simulator/events"
	"stocks-simulator/handlers"
	"stocks-simulator/middleware"
	"stocks-simulator/quotes"
	"stocks-simulator/session"
	"stocks-simulator/trading"
)

type serveCmd struct {
	migrate bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "runs the trading simulator web server" }
func (*serveCmd) Usage() string {
	return `serve [-migrate]

  Starts the HTTP server. Configuration is read from the environment
  and an optional .env file.
`
}

func (s *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&s.migrate, "migrate", true, "Apply schema migrations before serving")
}

func (s *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not build logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	if err := s.run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (s *serveCmd) run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if s.migrate {
		if err := database.AutoMigrate(db.DB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	provider := quotes.NewCache(
		quotes.NewAlphaVantage(cfg.Quotes.BaseURL, cfg.Quotes.APIKey, cfg.Quotes.Timeout, logger),
		rdb, cfg.Quotes.CacheTTL, logger,
	)
	publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	h := handlers.New(
		accounts.NewService(db.DB, cfg.StartingCash(), logger),
		trading.NewEngine(db.DB, provider, publisher, logger),
		session.NewManager(rdb, cfg.Session.Secret, cfg.Session.TTL),
		middleware.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.SecureCookie},
		logger,
	)

	if cfg.App.Env == "prod" || cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.App.Port,
		Handler:           handlers.Router(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}
