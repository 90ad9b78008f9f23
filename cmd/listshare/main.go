package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kerhoff/listshare/internal/api"
	"github.com/Kerhoff/listshare/internal/auth"
	"github.com/Kerhoff/listshare/internal/config"
	"github.com/Kerhoff/listshare/internal/handlers"
	"github.com/Kerhoff/listshare/internal/live"
	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/notify"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/repository/memory"
	"github.com/Kerhoff/listshare/internal/repository/postgres"
	"github.com/Kerhoff/listshare/internal/service"
	"github.com/Kerhoff/listshare/internal/telegram"
	"github.com/Kerhoff/listshare/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting ListShare...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Entity store
	var (
		store  *repository.Store
		health api.HealthChecker
		db     *config.Database
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		l.Warn("Using the in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		db, err = config.NewDatabase(ctx, cfg.DatabaseURL, l)
		if err != nil {
			l.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			l.Fatalf("Failed to run migrations: %v", err)
		}
		store = postgres.NewStore(db.DB)
		health = db
	}

	m := metrics.New()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	// Push channels
	hub := live.NewHub(m, l)
	sockets := notify.NewMultiDeliverer(m, l)
	sockets.Add("live", hub)
	chats := notify.NewMultiDeliverer(m, l)

	var bot *telegram.Bot
	if cfg.TelegramEnabled() {
		bot, err = telegram.NewBot(cfg.TelegramToken, store.Users, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}
		chats.Add("telegram", bot)
	}

	// Push queue
	var (
		queue       notify.Queue
		redisClient *redis.Client
	)
	if cfg.RedisEnabled() {
		redisClient, err = notify.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			l.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		// Sockets live on whichever instance the user connected to, chats are sent once
		queue = notify.NewRedisQueue(redisClient, cfg.RedisChannel, sockets, chats, cfg.PushWorkers, cfg.PushBuffer, m, l)
		l.Infof("Pushing notifications through Redis channel %s", cfg.RedisChannel)
	} else {
		all := notify.NewMultiDeliverer(m, l)
		all.Add("live", hub)
		if bot != nil {
			all.Add("telegram", bot)
		}
		queue = notify.NewWorkerQueue(all, cfg.PushWorkers, cfg.PushBuffer, m, l)
	}

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		queue.Run(ctx)
	}()

	// Service layer
	fanout := notify.NewFanout(store.Notifications, queue, m, l)
	svc := service.New(store, fanout, tokens, l)

	// Telegram commands
	if bot != nil {
		bot.RegisterCommand("start", handlers.NewStartHandler(l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l))
		bot.RegisterCommand("link", handlers.NewLinkHandler(svc, l))
		bot.RegisterCommand("unread", handlers.NewUnreadHandler(svc, svc.Inbox, l))
		bot.RegisterCommand("lists", handlers.NewListsHandler(svc, l))

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	// HTTP API
	apiServer := api.NewServer(svc, live.NewHandler(hub, tokens, l), health, m, l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	// Metrics
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("Metrics server listening on :%s", cfg.PrometheusPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("Metrics server error: %v", err)
		}
	}()

	l.Info("ListShare started successfully")

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	l.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown: %v", err)
	}
	hub.CloseAll()
	metricsServer.Shutdown(shutdownCtx)

	workers.Wait()

	l.Info("ListShare stopped")
}
