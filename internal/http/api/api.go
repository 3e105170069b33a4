// Package api holds the session plumbing shared by front and admin routes.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zinal-app/zinal/internal/config"
	"github.com/zinal-app/zinal/internal/models"
	"github.com/zinal-app/zinal/internal/security"
	"github.com/zinal-app/zinal/internal/session"
	"gorm.io/gorm"
)

// Gin context keys set by the session middleware.
const (
	ContextSessionID = "sessionID"
	ContextSession   = "sessionData"
)

// SessionMiddleware resolves the browser session cookie into server-side
// session state. It never aborts; routes decide whether auth is required.
func SessionMiddleware(store session.Store, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, errCookie := c.Cookie(cfg.CookieName)
		if errCookie != nil || strings.TrimSpace(raw) == "" {
			c.Next()
			return
		}
		claims, errParse := security.ParseSessionToken(cfg.Secret, raw)
		if errParse != nil {
			c.Next()
			return
		}
		data, found, errGet := store.Get(c.Request.Context(), claims.SessionID)
		if errGet != nil || !found {
			c.Next()
			return
		}
		c.Set(ContextSessionID, claims.SessionID)
		c.Set(ContextSession, data)
		c.Next()
	}
}

// SessionFromContext returns the resolved session id and state, if any.
func SessionFromContext(c *gin.Context) (string, session.Data, bool) {
	rawID, okID := c.Get(ContextSessionID)
	rawData, okData := c.Get(ContextSession)
	if !okID || !okData {
		return "", session.Data{}, false
	}
	id, okCast := rawID.(string)
	if !okCast {
		return "", session.Data{}, false
	}
	data, okCast := rawData.(session.Data)
	if !okCast {
		return "", session.Data{}, false
	}
	return id, data, true
}

// CurrentUser resolves the session's user id to a live user record. A
// session whose user no longer exists is treated as unauthenticated.
func CurrentUser(c *gin.Context, conn *gorm.DB) (*models.User, bool) {
	_, data, ok := SessionFromContext(c)
	if !ok || data.UserID == 0 {
		return nil, false
	}
	var user models.User
	if errFind := conn.WithContext(c.Request.Context()).First(&user, data.UserID).Error; errFind != nil {
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			log.WithError(errFind).Warn("api: resolve session user failed")
		}
		return nil, false
	}
	return &user, true
}
