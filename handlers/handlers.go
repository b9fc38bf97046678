package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stocks-simulator/accounts"
	"stocks-simulator/middleware"
	"stocks-simulator/session"
	"stocks-simulator/trading"
)

// Handler serves the HTML pages of the simulator.
type Handler struct {
	accounts *accounts.Service
	engine   *trading.Engine
	sessions *session.Manager
	cookie   middleware.SessionCookie
	logger   *zap.Logger
}

func New(acc *accounts.Service, engine *trading.Engine, sessions *session.Manager, cookie middleware.SessionCookie, logger *zap.Logger) *Handler {
	return &Handler{
		accounts: acc,
		engine:   engine,
		sessions: sessions,
		cookie:   cookie,
		logger:   logger,
	}
}

func (h *Handler) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	_, loggedIn := middleware.CurrentUser(c)
	data["Title"] = title
	data["LoggedIn"] = loggedIn
	c.HTML(status, name, data)
}

// apologize renders the error page for err with its mapped status.
func (h *Handler) apologize(c *gin.Context, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		_ = c.Error(err)
	}
	h.render(c, status, "apology.html", "Apology", gin.H{"Code": status, "Message": message})
}

// NotFound is the catch-all for unknown routes.
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "apology.html", "Apology", gin.H{"Code": http.StatusNotFound, "Message": "page not found"})
}

// classify maps domain errors to a status code and a user-facing message.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, trading.ErrInvalidSymbol):
		return http.StatusBadRequest, "must enter a valid stock symbol"
	case errors.Is(err, trading.ErrInvalidShareCount):
		return http.StatusBadRequest, "must enter a valid number of shares"
	case errors.Is(err, trading.ErrInsufficientFunds):
		return http.StatusForbidden, "you do not have enough cash to buy those shares"
	case errors.Is(err, trading.ErrInsufficientShares):
		return http.StatusBadRequest, "you do not own that many shares"
	case errors.Is(err, trading.ErrUnknownUser):
		return http.StatusForbidden, "unknown user, please log in again"
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusForbidden, "invalid username and/or password"
	case errors.Is(err, accounts.ErrMissingUsername):
		return http.StatusBadRequest, "must provide username"
	case errors.Is(err, accounts.ErrMissingPassword):
		return http.StatusBadRequest, "must provide password"
	case errors.Is(err, accounts.ErrPasswordMismatch):
		return http.StatusBadRequest, "passwords do not match"
	case errors.Is(err, accounts.ErrUsernameTaken):
		return http.StatusBadRequest, "username already in use"
	case errors.Is(err, accounts.ErrWeakPassword):
		return http.StatusBadRequest, "password must be between 8-20 characters and contain at least 1 lowercase letter, 1 uppercase letter, 1 digit, and 1 of @$!%*#?&"
	default:
		return http.StatusInternalServerError, "something went wrong, please try again"
	}
}
