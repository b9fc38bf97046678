package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stocks-simulator/accounts"
	"stocks-simulator/middleware"
	"stocks-simulator/models"
	"stocks-simulator/session"
	"stocks-simulator/testutils"
	"stocks-simulator/trading"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	cookie *http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutils.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	q := testutils.NewStaticQuotes(map[string]int64{"NFLX": 500})
	logger := zap.NewNop()
	h := New(
		accounts.NewService(db, decimal.NewFromInt(10000), logger),
		trading.NewEngine(db, q, &testutils.RecordingPublisher{}, logger),
		session.NewManager(rdb, "test-secret", time.Hour),
		middleware.SessionCookie{Name: "session"},
		logger,
	)
	return &testApp{router: Router(h), db: db}
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name != "session" {
			continue
		}
		if c.MaxAge < 0 || c.Value == "" {
			a.cookie = nil
		} else {
			a.cookie = c
		}
	}
	return w
}

func (a *testApp) register(t *testing.T, username, password string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/register", url.Values{
		"username": {username}, "password": {password}, "confirmation": {password},
	})
	if w.Code != http.StatusFound || a.cookie == nil {
		t.Fatalf("register status = %d, cookie = %v, body = %s", w.Code, a.cookie, w.Body.String())
	}
}

func TestRoutes_RequireLogin(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/", "/buy", "/sell", "/history", "/quote"} {
		t.Run(path, func(t *testing.T) {
			w := app.do(t, http.MethodGet, path, nil)
			if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
				t.Errorf("GET %s = %d %q, want redirect to /login", path, w.Code, w.Header().Get("Location"))
			}
		})
	}
	w := app.do(t, http.MethodPost, "/buy", url.Values{"symbol": {"NFLX"}, "shares": {"1"}})
	if w.Code != http.StatusFound {
		t.Errorf("anonymous POST /buy = %d, want redirect", w.Code)
	}
	var n int64
	app.db.Model(&models.Transaction{}).Count(&n)
	if n != 0 {
		t.Errorf("anonymous buy reached the ledger")
	}
}

func TestRoutes_NotFoundAndNoStore(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/nowhere", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "page not found") {
		t.Errorf("body missing apology: %s", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Cache-Control"), "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", w.Header().Get("Cache-Control"))
	}
}

func TestRegisterRejections(t *testing.T) {
	tests := []struct {
		name         string
		password     string
		confirmation string
		wantStatus   int
		wantMessage  string
	}{
		{"weak password", "abc", "abc", http.StatusBadRequest, "password must be between 8-20"},
		{"mismatch", "Abcdef1!", "Abcdef1?", http.StatusBadRequest, "passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			w := app.do(t, http.MethodPost, "/register", url.Values{
				"username": {"alice"}, "password": {tt.password}, "confirmation": {tt.confirmation},
			})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantMessage) {
				t.Errorf("body missing %q", tt.wantMessage)
			}
			if app.cookie != nil {
				t.Errorf("failed registration started a session")
			}
		})
	}
}

func TestRegisterTakenUsername(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "Abcdef1!")
	app.do(t, http.MethodGet, "/logout", nil)

	w := app.do(t, http.MethodPost, "/register", url.Values{
		"username": {"alice"}, "password": {"Abcdef1!"}, "confirmation": {"Abcdef1!"},
	})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "username already in use") {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestLoginWrongPasswordStaysAnonymous(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "Abcdef1!")
	app.do(t, http.MethodGet, "/logout", nil)
	if app.cookie != nil {
		t.Fatalf("logout kept the session cookie")
	}

	w := app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"Wrong123!"}})
	if w.Code != http.StatusForbidden || !strings.Contains(w.Body.String(), "invalid username and/or password") {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
	unknown := app.do(t, http.MethodPost, "/login", url.Values{"username": {"mallory"}, "password": {"Wrong123!"}})
	if unknown.Code != w.Code {
		t.Errorf("unknown user status = %d, wrong password status = %d", unknown.Code, w.Code)
	}
	if app.cookie != nil {
		t.Errorf("failed login started a session")
	}
	if w := app.do(t, http.MethodGet, "/", nil); w.Code != http.StatusFound {
		t.Errorf("portfolio after failed login = %d, want redirect", w.Code)
	}

	w = app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"Abcdef1!"}})
	if w.Code != http.StatusFound || app.cookie == nil {
		t.Fatalf("login status = %d, cookie = %v", w.Code, app.cookie)
	}
	if w := app.do(t, http.MethodGet, "/", nil); w.Code != http.StatusOK {
		t.Errorf("portfolio after login = %d, want 200", w.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "Abcdef1!")
	stolen := app.cookie

	app.do(t, http.MethodGet, "/logout", nil)
	app.cookie = stolen
	if w := app.do(t, http.MethodGet, "/", nil); w.Code != http.StatusFound {
		t.Errorf("reused token after logout = %d, want redirect", w.Code)
	}
}

func TestTradingFlow(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "Abcdef1!")

	w := app.do(t, http.MethodGet, "/buy", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "$10,000.00") {
		t.Fatalf("GET /buy = %d, body = %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/buy", url.Values{"symbol": {"nflx"}, "shares": {"10"}})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("POST /buy = %d, body = %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodGet, "/", nil)
	body := w.Body.String()
	if w.Code != http.StatusOK || !strings.Contains(body, "NFLX") || !strings.Contains(body, "$5,000.00") {
		t.Errorf("GET / = %d, body = %s", w.Code, body)
	}

	w = app.do(t, http.MethodPost, "/sell", url.Values{"symbol": {"NFLX"}, "shares": {"15"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "you do not own that many shares") {
		t.Errorf("oversell = %d, body = %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/buy", url.Values{"symbol": {"NFLX"}, "shares": {"11"}})
	if w.Code != http.StatusForbidden {
		t.Errorf("unaffordable buy = %d, want 403", w.Code)
	}

	w = app.do(t, http.MethodPost, "/buy", url.Values{"symbol": {"ZZZZ"}, "shares": {"1"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "must enter a valid stock symbol") {
		t.Errorf("unknown symbol buy = %d", w.Code)
	}

	w = app.do(t, http.MethodGet, "/sell", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `<option value="NFLX">`) {
		t.Errorf("GET /sell = %d, body = %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/sell", url.Values{"symbol": {"NFLX"}, "shares": {"4"}})
	if w.Code != http.StatusFound {
		t.Errorf("POST /sell = %d, body = %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodGet, "/history", nil)
	body = w.Body.String()
	if w.Code != http.StatusOK || strings.Count(body, "<td>BUY</td>") != 1 || strings.Count(body, "<td>SELL</td>") != 1 {
		t.Errorf("GET /history = %d, body = %s", w.Code, body)
	}
}

func TestQuote(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "Abcdef1!")

	w := app.do(t, http.MethodPost, "/quote", url.Values{"symbol": {"nflx"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "$500.00") {
		t.Errorf("POST /quote = %d, body = %s", w.Code, w.Body.String())
	}
	w = app.do(t, http.MethodPost, "/quote", url.Values{"symbol": {""}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank quote = %d, want 400", w.Code)
	}
}
