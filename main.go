package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"occupancy-dashboard/config"
	"occupancy-dashboard/handlers"
	"occupancy-dashboard/middleware"
	"occupancy-dashboard/models"
	"occupancy-dashboard/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	databaseService, err := services.NewDatabaseService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database service: %v", err)
	}
	defer databaseService.Close()

	scopeService := services.NewScopeService(databaseService)
	classifier := services.NewNationalityClassifier()
	complianceService := services.NewComplianceService(databaseService, cfg.PenaltyFee)
	aggregationService := services.NewAggregationService(databaseService, classifier, complianceService)
	settingsService := services.NewSettingsService(databaseService)

	websocketService := services.NewWebSocketService(databaseService, aggregationService, cfg)
	if err := websocketService.Start(); err != nil {
		log.Fatalf("Failed to start WebSocket service: %v", err)
	}
	defer websocketService.Stop()

	dashboardHandler := handlers.NewDashboardHandler(scopeService, aggregationService, complianceService, settingsService)
	websocketHandler := handlers.NewWebSocketHandler(websocketService.GetHub())

	r := gin.Default()

	// CORS middleware for Gin
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Health endpoint (public)
	r.GET("/health", dashboardHandler.HealthHandler)

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.GET("/api/v1/checkins", dashboardHandler.CheckInsHandler)
		protected.GET("/api/v1/metrics", dashboardHandler.MetricsHandler)
		protected.GET("/api/v1/nationalities", dashboardHandler.NationalitiesHandler)
		protected.GET("/api/v1/nationalities/grouped", dashboardHandler.GroupedNationalitiesHandler)
		protected.GET("/api/v1/nationalities/distribution", dashboardHandler.NationalityDistributionHandler)
		protected.GET("/api/v1/demographics", dashboardHandler.DemographicsHandler)
		protected.GET("/api/v1/compliance", dashboardHandler.ComplianceHandler)
		protected.POST("/api/v1/penalty-payments", dashboardHandler.PenaltyPaymentHandler)
		protected.GET("/ws/submissions", websocketHandler.ListenSubmissions)
		protected.GET("/ws/health", websocketHandler.HealthCheck)

		admin := protected.Group("/api/v1/settings")
		admin.Use(middleware.RequireRole(models.RoleRegionAdmin))
		{
			admin.GET("/auto-approval", dashboardHandler.AutoApprovalGetHandler)
			admin.PUT("/auto-approval", dashboardHandler.AutoApprovalSetHandler)
		}
	}

	log.Printf("Starting Occupancy Dashboard service on %s:%s", cfg.Host, cfg.Port)
	r.Run(cfg.Host + ":" + cfg.Port)
}
