package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zinal-app/zinal/internal/http/api"
	"github.com/zinal-app/zinal/internal/models"
	"gorm.io/gorm"
)

// ClickHandler records button-click analytics events.
type ClickHandler struct {
	db *gorm.DB
}

// NewClickHandler constructs a ClickHandler.
func NewClickHandler(db *gorm.DB) *ClickHandler {
	return &ClickHandler{db: db}
}

// registerClickRequest defines the request body for click registration.
type registerClickRequest struct {
	ButtonName string `json:"button_name"`
}

// Register appends one immutable click event for the session's user.
func (h *ClickHandler) Register(c *gin.Context) {
	user, ok := api.CurrentUser(c, h.db)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	var body registerClickRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil || !models.ValidButtonName(body.ButtonName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_button"})
		return
	}

	entry := models.ClickLog{
		UserID:     user.ID,
		ButtonName: body.ButtonName,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&entry).Error; errCreate != nil {
		log.WithError(errCreate).Error("clicks: create click log failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register click failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
