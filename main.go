package main

import (
	"context"
	"log"
	"os"

	"github.com/Ngonie-x/warrant-register/cmd"
	"github.com/Ngonie-x/warrant-register/internal/core/container"
	"github.com/Ngonie-x/warrant-register/internal/core/routes"
	"github.com/Ngonie-x/warrant-register/internal/database"
	"github.com/Ngonie-x/warrant-register/internal/logger"
	"github.com/Ngonie-x/warrant-register/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env file, but don't overwrite system environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	cmd.Execute(ctx)
}

func main() {
	zapLogger := logger.NewLogger()
	defer zapLogger.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		zapLogger.Fatal("DATABASE_URL is not set")
	}

	db, err := database.NewPostgresConnection(dbURL)
	if err != nil {
		zapLogger.Fatal("unable to connect to the database", zap.Error(err))
	}
	defer db.Close()

	zapLogger.Info("connected to the database")

	appContainer := container.NewAppContainer(db, zapLogger)

	router := gin.Default()
	router.Use(middleware.RecoveryMiddleware(zapLogger))

	routes.RegisterPublicRoutes(router, appContainer)
	routes.RegisterProtectedRoutes(router, appContainer)
	routes.RegisterUtilityRoutes(router, appContainer)

	if err := appContainer.Sweeper.Start(); err != nil {
		zapLogger.Fatal("unable to start expiry sweeper", zap.Error(err))
	}
	defer appContainer.Sweeper.Stop()

	if err := router.Run(os.Getenv("APP_HOST")); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
