package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zinal-app/zinal/internal/http/api"
	"github.com/zinal-app/zinal/internal/session"
	"github.com/zinal-app/zinal/internal/signal"
	"gorm.io/gorm"
)

// AnalysisHandler serves the cooldown-gated signal generator endpoint.
type AnalysisHandler struct {
	db       *gorm.DB
	sessions session.Store
	gen      *signal.Generator
	nowFn    func() time.Time
}

// NewAnalysisHandler constructs an AnalysisHandler with defaults when nil.
func NewAnalysisHandler(db *gorm.DB, sessions session.Store, gen *signal.Generator, nowFn func() time.Time) *AnalysisHandler {
	if gen == nil {
		gen = signal.NewGenerator(nil, nowFn)
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &AnalysisHandler{db: db, sessions: sessions, gen: gen, nowFn: nowFn}
}

// analysisResponse is the accepted-call payload.
type analysisResponse struct {
	signal.Suggestion
	BlockedUntil int64 `json:"blocked_until"`
}

// StartAnalysis produces a randomized suggestion at most once per cooldown
// window per session. The server clock is the only timing authority.
func (h *AnalysisHandler) StartAnalysis(c *gin.Context) {
	sid, _, okSession := api.SessionFromContext(c)
	if !okSession {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}
	user, okUser := api.CurrentUser(c, h.db)
	if !okUser {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	now := h.nowFn()
	if !user.AccessValid(now) {
		c.JSON(http.StatusForbidden, gin.H{"error": "expired"})
		return
	}

	result, errBegin := h.sessions.BeginAnalysis(c.Request.Context(), sid, now.UnixMilli(), signal.CooldownWindowMS)
	if errBegin != nil {
		if errors.Is(errBegin, session.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			return
		}
		log.WithError(errBegin).Error("analysis: session store failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store failed"})
		return
	}
	if !result.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":         "blocked",
			"blocked_until": result.BlockedUntil,
		})
		return
	}

	c.JSON(http.StatusOK, analysisResponse{
		Suggestion:   h.gen.Suggest(),
		BlockedUntil: result.BlockedUntil,
	})
}
