// Package app wires configuration, storage, and HTTP routes into a runnable
// server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zinal-app/zinal/internal/config"
	"github.com/zinal-app/zinal/internal/db"
	"github.com/zinal-app/zinal/internal/http/api"
	adminapi "github.com/zinal-app/zinal/internal/http/api/admin"
	"github.com/zinal-app/zinal/internal/http/api/front"
	"github.com/zinal-app/zinal/internal/http/pages"
	"github.com/zinal-app/zinal/internal/session"
	"github.com/zinal-app/zinal/internal/signal"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the web server with database-backed components and blocks
// until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	sessionCfg, errSession := config.LoadSessionConfig(configPath)
	if errSession != nil {
		return errSession
	}

	if errBootstrap := EnsureAdminUser(conn, config.LoadAdminBootstrap()); errBootstrap != nil {
		return errBootstrap
	}

	sessions := session.NewManager(func() session.RedisSettings {
		return session.RedisSettings{
			Enabled:  sessionCfg.Redis.Enabled,
			Addr:     sessionCfg.Redis.Addr,
			Password: sessionCfg.Redis.Password,
			DB:       sessionCfg.Redis.DB,
			Prefix:   sessionCfg.Redis.Prefix,
		}
	}, sessionCfg.Expiry, nil, nil)

	engine := buildEngine(conn, sessions, sessionCfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if errListen := srv.ListenAndServe(); errListen != nil && errListen != http.ErrServerClosed {
			errCh <- errListen
			return
		}
		errCh <- nil
	}()

	log.Infof("listening on %s", srv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Error("server shutdown error")
		}
		return <-errCh
	case errListen := <-errCh:
		return errListen
	}
}

// buildEngine assembles the gin engine with all routes registered. Tests use
// it directly to avoid binding a listener.
func buildEngine(conn *gorm.DB, sessions session.Store, sessionCfg config.SessionConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(api.SessionMiddleware(sessions, sessionCfg))

	pageHandler := pages.NewHandler(conn)
	engine.GET("/", pageHandler.Landing)
	engine.GET("/login", pageHandler.Login)
	engine.GET("/dashboard", pageHandler.Dashboard)
	engine.GET("/admin", pageHandler.Admin)

	front.RegisterFrontRoutes(engine, front.Deps{
		DB:         conn,
		Sessions:   sessions,
		SessionCfg: sessionCfg,
		Generator:  signal.NewGenerator(nil, nil),
	})
	adminapi.RegisterAdminRoutes(engine, conn)

	return engine
}

// nowUTC returns the current UTC time.
func nowUTC() time.Time { return time.Now().UTC() }
