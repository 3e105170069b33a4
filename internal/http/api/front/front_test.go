package front

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zinal-app/zinal/internal/config"
	"github.com/zinal-app/zinal/internal/db"
	"github.com/zinal-app/zinal/internal/http/api"
	"github.com/zinal-app/zinal/internal/models"
	"github.com/zinal-app/zinal/internal/security"
	"github.com/zinal-app/zinal/internal/session"
	"github.com/zinal-app/zinal/internal/signal"
	"gorm.io/gorm"
)

// testClock is a mutable clock shared between the handlers and the test.
type testClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

type testEnv struct {
	engine   *gin.Engine
	conn     *gorm.DB
	sessions session.Store
	cfg      config.SessionConfig
	clock    *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + filepath.Join(t.TempDir(), "zinal-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	clock := &testClock{at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cfg := config.SessionConfig{
		Secret:     "test-secret",
		Expiry:     time.Hour,
		CookieName: "zinal_session",
	}
	sessions := session.NewMemoryStore(cfg.Expiry, clock.Now)

	engine := gin.New()
	engine.Use(api.SessionMiddleware(sessions, cfg))
	RegisterFrontRoutes(engine, Deps{
		DB:         conn,
		Sessions:   sessions,
		SessionCfg: cfg,
		Generator:  signal.NewGenerator(rand.New(rand.NewSource(1)), clock.Now),
		NowFn:      clock.Now,
	})

	return &testEnv{engine: engine, conn: conn, sessions: sessions, cfg: cfg, clock: clock}
}

func (e *testEnv) createUser(t *testing.T, username, password string, isAdmin bool, expiresAt *time.Time) models.User {
	t.Helper()
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	now := e.clock.Now()
	user := models.User{
		Username:        username,
		Email:           username + "@example.com",
		Password:        hash,
		IsAdmin:         isAdmin,
		AccessExpiresAt: expiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if errCreate := e.conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user
}

// openSession stores a session directly and returns the signed cookie value.
func (e *testEnv) openSession(t *testing.T, user models.User) string {
	t.Helper()
	sid, errID := security.NewSessionID()
	if errID != nil {
		t.Fatalf("new session id: %v", errID)
	}
	if errPut := e.sessions.Put(context.Background(), sid, session.Data{UserID: user.ID, IsAdmin: user.IsAdmin}); errPut != nil {
		t.Fatalf("put session: %v", errPut)
	}
	token, errSign := security.SignSessionToken(e.cfg.Secret, sid, e.cfg.Expiry, e.clock.Now())
	if errSign != nil {
		t.Fatalf("sign token: %v", errSign)
	}
	return token
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(path, cookie string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: e.cfg.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) getJSON(path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: e.cfg.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "s3cret", false, nil)

	rec := env.postForm("/login", url.Values{"identifier": {"alice"}, "password": {"s3cret"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %q", loc)
	}
	cookies := rec.Result().Cookies()
	var found bool
	for _, ck := range cookies {
		if ck.Name == env.cfg.CookieName && ck.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie to be set")
	}
}

func TestLogin_ByEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "s3cret", false, nil)

	rec := env.postForm("/login", url.Values{"identifier": {"alice@example.com"}, "password": {"s3cret"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
}

func TestLogin_AdminRedirect(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "root", "s3cret", true, nil)

	rec := env.postForm("/login", url.Values{"identifier": {"root"}, "password": {"s3cret"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin" {
		t.Fatalf("expected redirect to /admin, got %q", loc)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "s3cret", false, nil)

	rec := env.postForm("/login", url.Values{"identifier": {"alice"}, "password": {"wrong"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login page re-render, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Credenciais inválidas!") {
		t.Fatalf("expected invalid credentials message, got %s", rec.Body.String())
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm("/login", url.Values{"identifier": {"alice"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login page re-render, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Preencha usuário/email e senha.") {
		t.Fatalf("expected missing credentials message, got %s", rec.Body.String())
	}
}

func TestLogin_ExpiredAccess(t *testing.T) {
	env := newTestEnv(t)
	past := env.clock.Now().Add(-time.Hour)
	env.createUser(t, "alice", "s3cret", false, &past)

	rec := env.postForm("/login", url.Values{"identifier": {"alice"}, "password": {"s3cret"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login page re-render, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Acesso expirado.") {
		t.Fatalf("expected expired access message, got %s", rec.Body.String())
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "s3cret", false, nil)
	cookie := env.openSession(t, user)

	rec := env.getJSON("/logout", cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}

	// The same cookie no longer resolves to a session.
	recMe := env.getJSON("/api/user/me", cookie)
	if recMe.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", recMe.Code)
	}
}

func TestStartAnalysis_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON("/api/start-analysis", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	if body["error"] != "not_authenticated" {
		t.Fatalf("expected not_authenticated, got %v", body["error"])
	}
}

func TestStartAnalysis_ExpiredAccess(t *testing.T) {
	env := newTestEnv(t)
	past := env.clock.Now().Add(-time.Hour)
	user := env.createUser(t, "alice", "s3cret", false, &past)
	cookie := env.openSession(t, user)

	rec := env.postJSON("/api/start-analysis", cookie, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	if body["error"] != "expired" {
		t.Fatalf("expected expired, got %v", body["error"])
	}
}

func TestStartAnalysis_CooldownFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "s3cret", false, nil)
	cookie := env.openSession(t, user)

	// First call succeeds with a full payload.
	rec := env.postJSON("/api/start-analysis", cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &payload); errDecode != nil {
		t.Fatalf("decode payload: %v", errDecode)
	}
	for _, key := range []string{"titulo", "moeda", "expiracao", "entrada", "direcao", "protecao1", "protecao2", "blocked_until"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("payload missing %q: %v", key, payload)
		}
	}
	wantBoundary := float64(env.clock.Now().UnixMilli() + signal.CooldownWindowMS)
	if payload["blocked_until"] != wantBoundary {
		t.Fatalf("expected blocked_until=%v, got %v", wantBoundary, payload["blocked_until"])
	}

	// Second call inside the window is rejected with the same boundary.
	env.clock.Advance(time.Minute)
	recBlocked := env.postJSON("/api/start-analysis", cookie, nil)
	if recBlocked.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", recBlocked.Code)
	}
	var blocked map[string]any
	if errDecode := json.Unmarshal(recBlocked.Body.Bytes(), &blocked); errDecode != nil {
		t.Fatalf("decode blocked body: %v", errDecode)
	}
	if blocked["error"] != "blocked" {
		t.Fatalf("expected blocked, got %v", blocked["error"])
	}
	if blocked["blocked_until"] != wantBoundary {
		t.Fatalf("expected blocked_until=%v, got %v", wantBoundary, blocked["blocked_until"])
	}

	// After the window passes the gate reopens.
	env.clock.Advance(7 * time.Minute)
	recAgain := env.postJSON("/api/start-analysis", cookie, nil)
	if recAgain.Code != http.StatusOK {
		t.Fatalf("expected 200 after window, got %d", recAgain.Code)
	}
}

func TestMe_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.getJSON("/api/user/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	if body["authenticated"] != false {
		t.Fatalf("expected authenticated=false, got %v", body["authenticated"])
	}
}

func TestMe_Authenticated(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "s3cret", false, nil)
	cookie := env.openSession(t, user)

	rec := env.getJSON("/api/user/me", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			Username     string `json:"username"`
			Email        string `json:"email"`
			IsAdmin      bool   `json:"is_admin"`
			BlockedUntil *int64 `json:"blocked_until"`
		} `json:"user"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	if !body.Authenticated || body.User.Username != "alice" || body.User.Email != "alice@example.com" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if body.User.BlockedUntil != nil {
		t.Fatalf("expected no cooldown before first analysis, got %v", *body.User.BlockedUntil)
	}
}

func TestMe_ReportsCooldown(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "s3cret", false, nil)
	cookie := env.openSession(t, user)

	startMS := env.clock.Now().UnixMilli()
	if rec := env.postJSON("/api/start-analysis", cookie, nil); rec.Code != http.StatusOK {
		t.Fatalf("start analysis: got %d", rec.Code)
	}

	rec := env.getJSON("/api/user/me", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		User struct {
			BlockedUntil *int64 `json:"blocked_until"`
		} `json:"user"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	if body.User.BlockedUntil == nil || *body.User.BlockedUntil != startMS+signal.CooldownWindowMS {
		t.Fatalf("expected blocked_until=%d, got %v", startMS+signal.CooldownWindowMS, body.User.BlockedUntil)
	}
}

func TestRegisterClick_Valid(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "s3cret", false, nil)
	cookie := env.openSession(t, user)

	rec := env.postJSON("/api/registrar-clique", cookie, gin.H{"button_name": models.ButtonTelegram})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var count int64
	if errCount := env.conn.Model(&models.ClickLog{}).Where("user_id = ?", user.ID).Count(&count).Error; errCount != nil {
		t.Fatalf("count clicks: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected 1 click log, got %d", count)
	}
}

func TestRegisterClick_InvalidButton(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "s3cret", false, nil)
	cookie := env.openSession(t, user)

	rec := env.postJSON("/api/registrar-clique", cookie, gin.H{"button_name": "whatsapp"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	if body["error"] != "invalid_button" {
		t.Fatalf("expected invalid_button, got %v", body["error"])
	}

	var count int64
	if errCount := env.conn.Model(&models.ClickLog{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count clicks: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no click logs, got %d", count)
	}
}

func TestRegisterClick_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON("/api/registrar-clique", "", gin.H{"button_name": models.ButtonTelegram})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
