package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zinal-app/zinal/internal/http/api"
	"github.com/zinal-app/zinal/internal/signal"
	"github.com/zinal-app/zinal/internal/timeutil"
	"gorm.io/gorm"
)

// MeHandler serves the current-user info endpoint.
type MeHandler struct {
	db *gorm.DB
}

// NewMeHandler constructs a MeHandler.
func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

// Me reports identity and cooldown status for the session's user.
func (h *MeHandler) Me(c *gin.Context) {
	user, ok := api.CurrentUser(c, h.db)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	_, data, _ := api.SessionFromContext(c)
	var blockedUntil *int64
	if data.AnalysisStartedAtMS > 0 {
		v := data.AnalysisStartedAtMS + signal.CooldownWindowMS
		blockedUntil = &v
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user": gin.H{
			"id":                user.ID,
			"username":          user.Username,
			"email":             user.Email,
			"is_admin":          user.IsAdmin,
			"access_expires_at": timeutil.MillisUTCPtr(user.AccessExpiresAt),
			"blocked_until":     blockedUntil,
		},
	})
}
