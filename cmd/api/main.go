package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"route-optimization-api/clients"
	"route-optimization-api/config"
	"route-optimization-api/handlers"
	"route-optimization-api/middleware"
	"route-optimization-api/models"
	"route-optimization-api/services"
	"route-optimization-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Route{}, &models.Waypoint{}, &models.TrafficPrediction{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	authService := services.NewAuthService(cfg.JWT)

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		// degraded mode: cache misses everywhere, websocket feed disabled
		log.Printf("Redis unavailable, continuing without cache: %v", err)
	}
	defer cache.Close()

	userStore := store.NewUserStore(db)
	routeStore := store.NewRouteStore(db)
	predictionStore := store.NewPredictionStore(db)

	if err := seedAdminUser(ctx, userStore, authService, cfg.Admin); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	routingClient := clients.NewRoutingClient(cfg.Routing)
	predictionClient := clients.NewPredictionClient(cfg.Prediction)

	authHandler := handlers.NewAuthHandler(userStore, authService)
	routesHandler := handlers.NewRoutesHandler(routeStore, routingClient)
	predictionsHandler := handlers.NewPredictionsHandler(predictionStore, predictionClient, cache)
	adminHandler := handlers.NewAdminHandler(routeStore, predictionStore, cache, sqlDB)
	usersHandler := handlers.NewUsersHandler(userStore)

	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Route Optimization API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/token", authHandler.Token)
	auth.GET("/me", middleware.RequireAuth(authService), authHandler.Me)

	routes := api.Group("/routes", middleware.RequireAuth(authService))
	routes.POST("/", routesHandler.Optimize)
	routes.POST("/optimize", routesHandler.Optimize)
	routes.GET("/", routesHandler.List)
	routes.GET("/geocode", routesHandler.Geocode)
	routes.GET("/:id", routesHandler.Get)
	routes.DELETE("/:id", middleware.RequireAdmin(), routesHandler.Delete)

	predictions := api.Group("/predictions", middleware.RequireAuth(authService))
	predictions.POST("/predict", predictionsHandler.Predict)
	predictions.GET("/model-info", predictionsHandler.ModelInfo)
	predictions.GET("/routes/:id", predictionsHandler.ListForRoute)

	admin := api.Group("/admin", middleware.RequireAuth(authService), middleware.RequireAdmin())
	admin.GET("/analytics/summary", adminHandler.Summary)
	admin.GET("/analytics/timeseries", adminHandler.Timeseries)
	admin.GET("/system/status", adminHandler.SystemStatus)
	admin.GET("/users/:id", usersHandler.Get)
	admin.DELETE("/users/:id", usersHandler.Deactivate)

	api.GET("/ws/predictions", handlers.PredictionsWebSocket(cache, authService))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// seedAdminUser creates the bootstrap admin account if it does not exist.
func seedAdminUser(ctx context.Context, users *store.UserStore, authService *services.AuthService, cfg config.AdminConfig) error {
	_, err := users.ByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := authService.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:          cfg.Email,
		Username:       "admin",
		HashedPassword: hash,
		FullName:       "Admin User",
		Role:           models.RoleAdmin,
		IsActive:       true,
	}
	if err := users.Create(ctx, &admin); err != nil {
		return err
	}
	log.Printf("Created admin user %s", cfg.Email)
	return nil
}
