// Package front registers the user-facing API routes.
package front

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zinal-app/zinal/internal/config"
	handlers "github.com/zinal-app/zinal/internal/http/api/front/handlers"
	"github.com/zinal-app/zinal/internal/session"
	"github.com/zinal-app/zinal/internal/signal"
	"gorm.io/gorm"
)

// Deps bundles the dependencies the front routes need. NowFn and Generator
// default when nil, which tests override with fixed clocks and seeded sources.
type Deps struct {
	DB         *gorm.DB
	Sessions   session.Store
	SessionCfg config.SessionConfig
	Generator  *signal.Generator
	NowFn      func() time.Time
}

// RegisterFrontRoutes registers login, logout, and the user-facing JSON API.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil || deps.Sessions == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Sessions, deps.SessionCfg, deps.NowFn)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	apiGroup := r.Group("/api")

	analysisHandler := handlers.NewAnalysisHandler(deps.DB, deps.Sessions, deps.Generator, deps.NowFn)
	apiGroup.POST("/start-analysis", analysisHandler.StartAnalysis)

	meHandler := handlers.NewMeHandler(deps.DB)
	apiGroup.GET("/user/me", meHandler.Me)

	clickHandler := handlers.NewClickHandler(deps.DB)
	apiGroup.POST("/registrar-clique", clickHandler.Register)
}
