package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zinal-app/zinal/internal/models"
	"gorm.io/gorm"
)

// ClickLogHandler serves click analytics endpoints.
type ClickLogHandler struct {
	db *gorm.DB
}

// NewClickLogHandler constructs a ClickLogHandler.
func NewClickLogHandler(db *gorm.DB) *ClickLogHandler {
	return &ClickLogHandler{db: db}
}

// List returns click log entries, newest first. Accepts an optional
// user_id filter.
func (h *ClickLogHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.ClickLog{})

	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		userID, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		q = q.Where("user_id = ?", userID)
	}

	var rows []models.ClickLog
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list clicks failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":          row.ID,
			"user_id":     row.UserID,
			"button_name": row.ButtonName,
			"created_at":  row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"clicks": out})
}
