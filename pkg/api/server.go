// Package api provides the read-only status API for midimirror
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/showbridge/midimirror/pkg/state"
)

// @title MIDIMirror API
// @version 1.0
// @description Read-only status API for the midimirror bridge
// @host localhost:8080
// @BasePath /api/v1

// Gate reports companion-process liveness
type Gate interface {
	Open() bool
}

// Server serves read-only views of the bridge state. It never mutates the
// store: operators observe through it, they act through the controller.
type Server struct {
	store *state.Store
	gate  Gate
}

// NewServer creates a Server over the given store and gate
func NewServer(store *state.Store, gate Gate) *Server {
	return &Server{store: store, gate: gate}
}

// Start runs the API server on the specified port (blocking)
func (s *Server) Start(port int) error {
	return s.routes().Run(fmt.Sprintf(":%d", port))
}

func (s *Server) routes() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.healthCheck)
		v1.GET("/state", s.buttonState)
		v1.GET("/gate", s.gateState)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "midimirror",
	})
}

// buttonState godoc
// @Summary Current button state
// @Description Returns the notes currently mirrored as active
// @Tags status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/state [get]
func (s *Server) buttonState(c *gin.Context) {
	active := s.store.Active()
	// []uint8 would marshal as base64; report the notes as numbers.
	notes := make([]int, 0, len(active))
	for _, n := range active {
		notes = append(notes, int(n))
	}
	c.JSON(http.StatusOK, gin.H{
		"active": notes,
		"count":  len(notes),
	})
}

// gateState godoc
// @Summary Liveness gate state
// @Description Reports whether the companion lighting process is running
// @Tags status
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /api/v1/gate [get]
func (s *Server) gateState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"open": s.gate.Open(),
	})
}
