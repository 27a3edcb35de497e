package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/roomcast/server/internal/controller"
	"github.com/roomcast/server/internal/domain"
	"github.com/roomcast/server/internal/identity"
	"github.com/roomcast/server/internal/repository/connection/inmemory"
	sessionRedis "github.com/roomcast/server/internal/repository/session/redis"
	"github.com/roomcast/server/internal/search"
	"github.com/roomcast/server/internal/service/room"
	"github.com/roomcast/server/pkg/ctxlogger"
	"github.com/roomcast/server/pkg/redisclient"
)

type AppConfig struct {
	Secret        string `json:"-"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	LogLevel      string `json:"log_level"`
	MembersLimit  int    `json:"members_limit"`
	QueueLimit    int    `json:"queue_limit"`
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisPassword string `json:"-"`

	SyncIntervalSeconds  int     `json:"sync_interval_seconds"`
	SyncTolerance        float64 `json:"sync_tolerance"`
	InitialSyncTolerance float64 `json:"initial_sync_tolerance"`
	InitialSyncDelayMs   int     `json:"initial_sync_delay_ms"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be greater than 0")
	}
	if cfg.SyncIntervalSeconds < 1 {
		return fmt.Errorf("sync interval must be greater than 0")
	}
	if cfg.SyncTolerance <= 0 || cfg.InitialSyncTolerance <= 0 {
		return fmt.Errorf("sync tolerances must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	sessionRepo := sessionRedis.NewRepo(rc, 5*time.Minute)
	connectionRepo := inmemory.NewRepo()
	registry := domain.NewRegistry(cfg.MembersLimit, cfg.QueueLimit)
	verifier := identity.NewVerifier(cfg.Secret)

	roomService := room.NewService(registry, connectionRepo, sessionRepo, verifier, &room.Config{
		MembersLimit:         cfg.MembersLimit,
		QueueLimit:           cfg.QueueLimit,
		SyncInterval:         time.Duration(cfg.SyncIntervalSeconds) * time.Second,
		SyncTolerance:        cfg.SyncTolerance,
		InitialSyncTolerance: cfg.InitialSyncTolerance,
		InitialSyncDelay:     time.Duration(cfg.InitialSyncDelayMs) * time.Millisecond,
	}, logger)

	searchProvider := search.NewYouTubeProvider()
	controller := controller.NewController(roomService, searchProvider, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	go controller.RunSyncScheduler(serverCtx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
