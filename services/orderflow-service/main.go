package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/metrics"
	"github.com/younghoyk/mr-daebak-order/internal/session"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	backendURL := getEnv("BACKEND_BASE_URL", "http://localhost:8080")
	port := getEnv("PORT", "8090")

	client := backend.NewClient(backendURL)
	server := &Server{
		sessions: session.NewManager(client),
		client:   client,
	}

	router := gin.Default()

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware("orderflow-service"))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/circuit-status", func(c *gin.Context) {
		c.JSON(http.StatusOK, client.CircuitStatus())
	})

	server.registerRoutes(router)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.WithFields(log.Fields{
		"backend_url": backendURL,
		"port":        port,
	}).Info("Orderflow Service starting")

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
