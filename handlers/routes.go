package handlers

import (
	"github.com/gin-gonic/gin"

	"stocks-simulator/middleware"
	"stocks-simulator/templates"
)

// Router wires every route of the simulator.
func Router(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.Logger(h.logger),
		middleware.NoCache(),
		middleware.Session(h.sessions, h.cookie, h.logger),
	)
	router.SetHTMLTemplate(templates.Parse())

	// Public routes
	router.GET("/login", h.LoginForm)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)
	router.GET("/register", h.RegisterForm)
	router.POST("/register", h.Register)

	// Protected routes
	auth := router.Group("/")
	auth.Use(middleware.RequireSession())
	{
		auth.GET("/", h.Index)
		auth.GET("/buy", h.BuyForm)
		auth.POST("/buy", h.Buy)
		auth.GET("/sell", h.SellForm)
		auth.POST("/sell", h.Sell)
		auth.GET("/history", h.History)
		auth.GET("/quote", h.QuoteForm)
		auth.POST("/quote", h.Quote)
	}

	router.NoRoute(h.NotFound)
	return router
}
