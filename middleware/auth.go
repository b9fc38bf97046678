package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stocks-simulator/session"
)

const identityKey = "identity"

// SessionCookie names and scopes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Token returns the raw session token from the request, if any.
func (sc SessionCookie) Token(c *gin.Context) string {
	token, err := c.Cookie(sc.Name)
	if err != nil {
		return ""
	}
	return token
}

// Set stores token in the response cookie.
func (sc SessionCookie) Set(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, token, int(ttl.Seconds()), "/", "", sc.Secure, true)
}

// Clear expires the session cookie.
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// Session resolves the session cookie into an identity for later handlers.
// Requests without a valid session continue as anonymous.
func Session(m *session.Manager, cookie SessionCookie, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.Token(c)
		if token == "" {
			c.Next()
			return
		}
		id, err := m.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				logger.Error("Session lookup failed", zap.Error(err))
			}
			c.Next()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireSession sends anonymous requests to the login form before they
// reach any handler.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated identity of the request.
func CurrentUser(c *gin.Context) (session.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return session.Identity{}, false
	}
	id, ok := v.(session.Identity)
	return id, ok
}

// ForgetUser drops the identity from the request, e.g. after logging out.
func ForgetUser(c *gin.Context) {
	c.Set(identityKey, nil)
}
