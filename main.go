// main.go
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"prescription-ai/agent"
	"prescription-ai/config"
	_ "prescription-ai/docs"
	"prescription-ai/endpoint"
	"prescription-ai/middleware"
	"prescription-ai/model"
	"prescription-ai/util"
)

// @title           Prescription AI API
// @version         1.0
// @description     AI-assisted patient intake, prescription generation and case-review chatbot service.
// @host            localhost:8000
// @BasePath        /
func main() {
	// Load and validate the configuration before touching anything else
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := model.EnsureSchema(db); err != nil {
		log.Fatalf("Error initializing schema: %v", err)
	}

	// Optional Redis backend for rate limiting; the limiter falls back to
	// in-process counters when this returns nil.
	config.ConnectRedis()

	// Optional GeoIP database for event log enrichment.
	if err := util.EnsureGeoIP(context.Background()); err != nil {
		log.Printf("GeoIP unavailable, event logs will omit location: %v", err)
	}
	defer util.CloseGeoIP()

	client := agent.NewClient(cfg.HFAPIKey, cfg.HFModelURL)

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	// Create a Gin router with default middleware
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.EndpointCallLogger())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.AgentMiddleware(client))

	router.GET("/", endpoint.Home)
	router.GET("/test-db", endpoint.TestDB)

	// The two model-backed endpoints are the expensive ones, so only they are
	// rate limited. Counters are keyed per path and client IP.
	modelLimiter := middleware.RateLimiter(middleware.RateLimitConfig{})
	router.POST("/submit", modelLimiter, endpoint.SubmitPatient)
	router.POST("/chatbot", modelLimiter, endpoint.ChatbotQuery)

	router.GET("/patient", endpoint.ListPatients)
	router.GET("/patient/:id", endpoint.GetPatientInfo)
	router.PATCH("/patient/:id", endpoint.UpdatePatient)
	router.DELETE("/patient/:id", endpoint.DeletePatient)

	router.GET("/prescription", endpoint.ListPrescriptions)
	router.GET("/prescription/:id", endpoint.GetPrescription)
	router.DELETE("/prescription/:id", endpoint.DeletePrescription)
	router.GET("/prescription/:id/pdf", endpoint.ExportPrescriptionPDF)

	router.Static("/static", "./static")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
