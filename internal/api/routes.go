package api

import (
	"alcyxob/trainerscribe/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	authService service.AuthService,
	customerService service.CustomerService,
	protocolService service.ProtocolService,
) {
	authHandler := NewAuthHandler(authService)
	customerHandler := NewCustomerHandler(customerService, protocolService)
	protocolHandler := NewProtocolHandler(protocolService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(authService))
	{
		protected.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"email": c.GetString(ContextSubjectKey)})
		})

		protected.GET("/dashboard", protocolHandler.GetDashboard)

		customerGroup := protected.Group("/customers")
		{
			customerGroup.GET("", customerHandler.ListCustomers)
			customerGroup.POST("", customerHandler.CreateCustomer)
			customerGroup.GET("/:id", customerHandler.GetCustomer)
			customerGroup.PATCH("/:id", customerHandler.UpdateCustomer)
			customerGroup.DELETE("/:id", customerHandler.DeleteCustomer)
			customerGroup.GET("/:id/protocols", customerHandler.GetCustomerProtocols)
		}

		protocolGroup := protected.Group("/protocols")
		{
			protocolGroup.GET("", protocolHandler.ListProtocols)
			protocolGroup.POST("", protocolHandler.CreateProtocol)
			protocolGroup.GET("/:id", protocolHandler.GetProtocol)
			protocolGroup.PATCH("/:id", protocolHandler.UpdateProtocol)
			protocolGroup.DELETE("/:id", protocolHandler.DeleteProtocol)
			protocolGroup.POST("/:id/export", protocolHandler.ExportProtocol)
			protocolGroup.GET("/:id/preview", protocolHandler.PreviewProtocol)
		}
	}
}
