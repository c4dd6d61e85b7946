package routes

import (
	"github.com/Ngonie-x/warrant-register/internal/core/container"
	"github.com/Ngonie-x/warrant-register/internal/middleware"
	"github.com/Ngonie-x/warrant-register/pkg/security"
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes wires the endpoints the external asset-management
// system calls without a user token.
func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	container.WarrantyHandler.RegisterPublicRoutes(router)
	container.ReferenceHandler.RegisterPublicRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("/api")
	protectedRoutes.Use(security.JWTMiddleware())

	container.WarrantyHandler.RegisterRoutes(protectedRoutes)
	container.ReferenceHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, container *container.Container) {
	router.GET("/health", middleware.HealthCheckHandler(container.Repository.DB))
}
