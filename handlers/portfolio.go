package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocks-simulator/middleware"
)

// Index shows the portfolio of the logged in user.
func (h *Handler) Index(c *gin.Context) {
	id, _ := middleware.CurrentUser(c)
	view, err := h.engine.Portfolio(c.Request.Context(), id.UserID)
	if err != nil {
		h.apologize(c, err)
		return
	}
	h.render(c, http.StatusOK, "index.html", "Portfolio", gin.H{"Portfolio": view})
}

func (h *Handler) BuyForm(c *gin.Context) {
	id, _ := middleware.CurrentUser(c)
	cash, err := h.engine.Cash(c.Request.Context(), id.UserID)
	if err != nil {
		h.apologize(c, err)
		return
	}
	h.render(c, http.StatusOK, "buy.html", "Buy", gin.H{"Cash": cash})
}

func (h *Handler) Buy(c *gin.Context) {
	id, _ := middleware.CurrentUser(c)
	if _, err := h.engine.Buy(c.Request.Context(), id.UserID, c.PostForm("symbol"), c.PostForm("shares")); err != nil {
		h.apologize(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) SellForm(c *gin.Context) {
	id, _ := middleware.CurrentUser(c)
	symbols, err := h.engine.OwnedSymbols(c.Request.Context(), id.UserID)
	if err != nil {
		h.apologize(c, err)
		return
	}
	h.render(c, http.StatusOK, "sell.html", "Sell", gin.H{"Symbols": symbols})
}

func (h *Handler) Sell(c *gin.Context) {
	id, _ := middleware.CurrentUser(c)
	if _, err := h.engine.Sell(c.Request.Context(), id.UserID, c.PostForm("symbol"), c.PostForm("shares")); err != nil {
		h.apologize(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) History(c *gin.Context) {
	id, _ := middleware.CurrentUser(c)
	ctx := c.Request.Context()
	history, err := h.engine.History(ctx, id.UserID)
	if err != nil {
		h.apologize(c, err)
		return
	}
	user, err := h.engine.Account(ctx, id.UserID)
	if err != nil {
		h.apologize(c, err)
		return
	}
	h.render(c, http.StatusOK, "history.html", "History", gin.H{"History": history, "Username": user.Username})
}
