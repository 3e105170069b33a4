// Package pages serves the minimal HTML shells of the site. Real page
// styling lives in the frontend assets; these handlers only render the
// skeletons and enforce the auth redirects between them.
package pages

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zinal-app/zinal/internal/http/api"
	"github.com/zinal-app/zinal/internal/settings"
	"gorm.io/gorm"
)

const contentTypeHTML = "text/html; charset=utf-8"

const landingTemplate = `<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>%[1]s</title></head>
<body>
<h1>%[1]s</h1>
<p><a href="/login">Entrar</a></p>
</body>
</html>`

const loginTemplate = `<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>%[1]s - Login</title></head>
<body>
<h1>%[1]s</h1>
%[2]s<form method="post" action="/login">
<input type="text" name="identifier" placeholder="Usuário ou email">
<input type="password" name="password" placeholder="Senha">
<button type="submit">Entrar</button>
</form>
</body>
</html>`

const dashboardTemplate = `<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>%[1]s - Dashboard</title></head>
<body>
<h1>%[1]s</h1>
<p>Bem-vindo, %[2]s.</p>
<div id="app" data-page="dashboard"></div>
<p><a href="/logout">Sair</a></p>
</body>
</html>`

const adminTemplate = `<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>%[1]s - Admin</title></head>
<body>
<h1>%[1]s</h1>
<p>Painel de %[2]s.</p>
<div id="app" data-page="admin"></div>
<p><a href="/logout">Sair</a></p>
</body>
</html>`

// Handler serves the page routes.
type Handler struct {
	db *gorm.DB
}

// NewHandler constructs a page Handler.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Landing serves the public landing page.
func (h *Handler) Landing(c *gin.Context) {
	body := fmt.Sprintf(landingTemplate, html.EscapeString(settings.SiteName(h.db)))
	c.Data(http.StatusOK, contentTypeHTML, []byte(body))
}

// Login serves the login form.
func (h *Handler) Login(c *gin.Context) {
	RenderLogin(c, settings.SiteName(h.db), "")
}

// RenderLogin renders the login form, optionally with an error message.
func RenderLogin(c *gin.Context, siteName, errMsg string) {
	errBlock := ""
	if errMsg != "" {
		errBlock = fmt.Sprintf("<p class=\"error\">%s</p>\n", html.EscapeString(errMsg))
	}
	body := fmt.Sprintf(loginTemplate, html.EscapeString(siteName), errBlock)
	c.Data(http.StatusOK, contentTypeHTML, []byte(body))
}

// Dashboard serves the user dashboard, redirecting anonymous visitors to login.
func (h *Handler) Dashboard(c *gin.Context) {
	user, ok := api.CurrentUser(c, h.db)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	body := fmt.Sprintf(dashboardTemplate,
		html.EscapeString(settings.SiteName(h.db)),
		html.EscapeString(user.Username),
	)
	c.Data(http.StatusOK, contentTypeHTML, []byte(body))
}

// Admin serves the admin page. Anonymous visitors go to login, non-admins to
// the dashboard.
func (h *Handler) Admin(c *gin.Context) {
	user, ok := api.CurrentUser(c, h.db)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if !user.IsAdmin {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	body := fmt.Sprintf(adminTemplate,
		html.EscapeString(settings.SiteName(h.db)),
		html.EscapeString(user.Username),
	)
	c.Data(http.StatusOK, contentTypeHTML, []byte(body))
}
