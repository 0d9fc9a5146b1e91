package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/example/govsol/internal/auth"
	"github.com/example/govsol/internal/config"
	"github.com/example/govsol/internal/db"
	httpserver "github.com/example/govsol/internal/http"
	"github.com/example/govsol/internal/mq"
	"github.com/example/govsol/internal/objectstore"
	"github.com/example/govsol/internal/repository"
	"github.com/example/govsol/internal/service"
	"github.com/example/govsol/internal/sweep"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the scheduled overdue sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg := config.Load()

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}

	var publisher mq.Publisher
	publisher, err = mq.NewRabbitPublisher(cfg.MQURL, cfg.MQExchange)
	if err != nil {
		log.Printf("warning: rabbitmq unavailable (%v), continuing without events", err)
		publisher = nil
	}

	var files *objectstore.Store
	if cfg.MinioEndpoint != "" {
		files, err = objectstore.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Printf("warning: minio unavailable (%v), attachments disabled", err)
		}
	}

	var limiter *httpserver.RateLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		limiter = httpserver.NewRateLimiter(client, cfg.IssueDailyCap, 24*time.Hour)
	}

	issueRepo := repository.NewIssueRepository(database)
	userRepo := repository.NewUserRepository(database)
	divisionRepo := repository.NewDivisionRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	notifications := service.NewNotificationService(notificationRepo, publisher)
	issues := service.NewIssueService(issueRepo, userRepo, notifications, cfg.SweepNational)

	apiServer := httpserver.NewServer(httpserver.Deps{
		Issues:        issues,
		Notifications: notifications,
		Users:         userRepo,
		Divisions:     divisionRepo,
		Tokens:        auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Files:         files,
		Limiter:       limiter,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := sweep.NewRunner(issues, cfg.SweepSchedule)
	if err := runner.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: apiServer.Engine,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown initiated")

	runner.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if publisher != nil {
		if closer, ok := publisher.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	log.Println("bye")
	return nil
}
