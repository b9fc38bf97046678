package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"stocks-simulator/session"
)

func newRouter(t *testing.T) (*gin.Engine, *session.Manager, SessionCookie) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	m := session.NewManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "secret", time.Hour)
	cookie := SessionCookie{Name: "session"}

	r := gin.New()
	r.Use(Logger(zap.NewNop()), NoCache(), Session(m, cookie, zap.NewNop()))
	r.GET("/public", func(c *gin.Context) {
		_, ok := CurrentUser(c)
		if ok {
			c.String(http.StatusOK, "authenticated")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	private := r.Group("/", RequireSession())
	private.GET("/private", func(c *gin.Context) {
		id, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID})
	})
	return r, m, cookie
}

func TestNoCacheHeaders(t *testing.T) {
	r, _, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))

	if got := w.Header().Get("Cache-Control"); got != "no-cache, no-store, must-revalidate" {
		t.Errorf("Cache-Control = %q", got)
	}
	if w.Header().Get("Pragma") != "no-cache" || w.Header().Get("Expires") != "0" {
		t.Errorf("missing Pragma/Expires headers: %v", w.Header())
	}
}

func TestRequireSession(t *testing.T) {
	r, m, cookie := newRouter(t)
	token, err := m.Start(context.Background(), 9)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tests := []struct {
		name       string
		path       string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"anonymous public", "/public", "", http.StatusOK, "anonymous"},
		{"authenticated public", "/public", token, http.StatusOK, "authenticated"},
		{"anonymous private", "/private", "", http.StatusFound, ""},
		{"bad token private", "/private", "junk", http.StatusFound, ""},
		{"authenticated private", "/private", token, http.StatusOK, `{"user_id":9}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cookie.Name, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusFound && w.Header().Get("Location") != "/login" {
				t.Errorf("Location = %q, want /login", w.Header().Get("Location"))
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}
