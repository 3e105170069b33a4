package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zinal-app/zinal/internal/config"
	"github.com/zinal-app/zinal/internal/http/api"
	"github.com/zinal-app/zinal/internal/http/pages"
	"github.com/zinal-app/zinal/internal/models"
	"github.com/zinal-app/zinal/internal/security"
	"github.com/zinal-app/zinal/internal/session"
	"github.com/zinal-app/zinal/internal/settings"
	"gorm.io/gorm"
)

// Login page messages, matching the dashboard frontend copy.
const (
	msgMissingCredentials = "Preencha usuário/email e senha."
	msgInvalidCredentials = "Credenciais inválidas!"
	msgAccessExpired      = "Acesso expirado."
)

// AuthHandler serves login and logout.
type AuthHandler struct {
	db       *gorm.DB
	sessions session.Store
	cfg      config.SessionConfig
	nowFn    func() time.Time
}

// NewAuthHandler constructs an AuthHandler with a default clock when nil.
func NewAuthHandler(db *gorm.DB, sessions session.Store, cfg config.SessionConfig, nowFn func() time.Time) *AuthHandler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &AuthHandler{db: db, sessions: sessions, cfg: cfg, nowFn: nowFn}
}

// Login checks the submitted credentials and establishes a session. Failures
// re-render the login page with a message; which field was wrong is never
// disclosed beyond invalid-vs-expired.
func (h *AuthHandler) Login(c *gin.Context) {
	identifier := strings.TrimSpace(c.PostForm("identifier"))
	password := c.PostForm("password")
	if identifier == "" || password == "" {
		pages.RenderLogin(c, settings.SiteName(h.db), msgMissingCredentials)
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if errFind != nil {
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			log.WithError(errFind).Error("auth: user lookup failed")
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
		pages.RenderLogin(c, settings.SiteName(h.db), msgInvalidCredentials)
		return
	}
	if !security.CheckPassword(user.Password, password) {
		pages.RenderLogin(c, settings.SiteName(h.db), msgInvalidCredentials)
		return
	}

	now := h.nowFn()
	if !user.AccessValid(now) {
		pages.RenderLogin(c, settings.SiteName(h.db), msgAccessExpired)
		return
	}

	sid, errID := security.NewSessionID()
	if errID != nil {
		log.WithError(errID).Error("auth: generate session id failed")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	if errPut := h.sessions.Put(c.Request.Context(), sid, session.Data{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
	}); errPut != nil {
		log.WithError(errPut).Error("auth: store session failed")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	token, errSign := security.SignSessionToken(h.cfg.Secret, sid, h.cfg.Expiry, now)
	if errSign != nil {
		log.WithError(errSign).Error("auth: sign session token failed")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.SetCookie(h.cfg.CookieName, token, int(h.cfg.Expiry.Seconds()), "/", "", false, true)

	if user.IsAdmin {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout clears the session unconditionally and returns to the landing page.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sid, _, ok := api.SessionFromContext(c); ok {
		if errDel := h.sessions.Delete(c.Request.Context(), sid); errDel != nil {
			log.WithError(errDel).Warn("auth: delete session failed")
		}
	}
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}
