// Package admin registers the admin-gated API routes.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zinal-app/zinal/internal/http/api"
	handlers "github.com/zinal-app/zinal/internal/http/api/admin/handlers"
	"gorm.io/gorm"
)

// ContextAdminUser is the gin context key holding the gated admin user.
const ContextAdminUser = "adminUser"

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authed := r.Group("/api/admin")
	authed.Use(adminGateMiddleware(db))

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/users", userHandler.List)
	authed.POST("/users", userHandler.Create)
	authed.PUT("/users/:id", userHandler.Update)
	authed.DELETE("/users/:id", userHandler.Delete)

	clickHandler := handlers.NewClickLogHandler(db)
	authed.GET("/clicks", clickHandler.List)
}

// adminGateMiddleware requires an authenticated user whose live record still
// carries the admin flag. The login-time session snapshot is not trusted, so
// revoking admin takes effect on the next request.
func adminGateMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := api.CurrentUser(c, db)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(ContextAdminUser, user)
		c.Next()
	}
}
