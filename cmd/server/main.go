package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/bimcheck/bimcheck/internal/adapter/cache"
	httpadapter "github.com/bimcheck/bimcheck/internal/adapter/http"
	"github.com/bimcheck/bimcheck/internal/adapter/persistence"
	"github.com/bimcheck/bimcheck/internal/config"
	"github.com/bimcheck/bimcheck/internal/service/jwt"
	"github.com/bimcheck/bimcheck/internal/service/logger"
	"github.com/bimcheck/bimcheck/internal/service/password"
	"github.com/bimcheck/bimcheck/internal/usecase"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "bimcheck",
	})
	appLog.WithField("env", cfg.Server.Environment).Info("application starting")

	db, err := sql.Open("postgres", cfg.GetDatabaseURL())
	if err != nil {
		appLog.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetConnMaxIdleTime(cfg.Database.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		appLog.WithError(err).Fatal("failed to ping database")
	}
	appLog.Info("database connection established")

	statsCache, err := cache.NewRedisStatsCache(cfg.Redis.URL, cfg.Redis.Enabled, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("failed to initialize stats cache")
	}

	auditRepo := persistence.NewPostgresAuditRepository(db)
	templateRepo := persistence.NewPostgresTemplateRepository(db)
	trailRepo := persistence.NewPostgresTrailRepository(db)
	userRepo := persistence.NewPostgresUserRepository(db)

	tokenService, err := jwt.NewJWTService(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
	if err != nil {
		appLog.WithError(err).Fatal("failed to initialize JWT service")
	}
	passwordService := password.NewBcryptService(cfg.Security.BcryptCost)

	auditUseCase := usecase.NewAuditUseCase(auditRepo, templateRepo, trailRepo, appLog)
	scoreUseCase := usecase.NewScoreUseCase(auditRepo, statsCache, cfg.Cache.StatsTTL, appLog)
	authUseCase := usecase.NewAuthUseCase(userRepo, passwordService, tokenService, appLog)

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, auditUseCase, scoreUseCase, authUseCase, tokenService, appLog)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		appLog.WithError(err).Fatal("server failed")
	case sig := <-quit:
		appLog.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("graceful shutdown failed")
	}
	appLog.Info("server stopped")
}
