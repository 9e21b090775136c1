package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/casque/ports"
)

// SetupRouter sets up the Gin router
func SetupRouter(handlers *AuthHandlers, tokenizer ports.Tokenizer, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))
	router.SetHTMLTemplate(Templates())

	// Login routes
	casque := router.Group("/casque")
	{
		casque.GET("/login", handlers.LoginPage)
		casque.POST("/login", handlers.Login)
		casque.POST("/logout", handlers.Logout)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(tokenizer))
	{
		api.GET("/me", handlers.Me)
	}

	return router
}
