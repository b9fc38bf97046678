package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stocks-simulator/middleware"
)

// endSession forgets any user attached to the request.
func (h *Handler) endSession(c *gin.Context) {
	if err := h.sessions.End(c.Request.Context(), h.cookie.Token(c)); err != nil {
		h.logger.Warn("Ending session failed", zap.Error(err))
	}
	h.cookie.Clear(c)
	middleware.ForgetUser(c)
}

func (h *Handler) startSession(c *gin.Context, userID uint) error {
	token, err := h.sessions.Start(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	h.cookie.Set(c, token, h.sessions.TTL())
	return nil
}

func (h *Handler) LoginForm(c *gin.Context) {
	h.endSession(c)
	h.render(c, http.StatusOK, "login.html", "Log In", nil)
}

func (h *Handler) Login(c *gin.Context) {
	h.endSession(c)

	user, err := h.accounts.Authenticate(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		h.apologize(c, err)
		return
	}
	if err := h.startSession(c, user.ID); err != nil {
		h.apologize(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	h.endSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) RegisterForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", "Register", nil)
}

func (h *Handler) Register(c *gin.Context) {
	user, err := h.accounts.Register(c.Request.Context(),
		c.PostForm("username"), c.PostForm("password"), c.PostForm("confirmation"))
	if err != nil {
		h.apologize(c, err)
		return
	}

	h.endSession(c)
	if err := h.startSession(c, user.ID); err != nil {
		h.apologize(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
