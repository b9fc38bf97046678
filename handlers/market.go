package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) QuoteForm(c *gin.Context) {
	h.render(c, http.StatusOK, "quote.html", "Quote", nil)
}

func (h *Handler) Quote(c *gin.Context) {
	quote, err := h.engine.Quote(c.Request.Context(), c.PostForm("symbol"))
	if err != nil {
		h.apologize(c, err)
		return
	}
	h.render(c, http.StatusOK, "quoted.html", "Quoted", gin.H{"Quote": quote})
}
