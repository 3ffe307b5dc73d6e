package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HelloResponse is the liveness payload
type HelloResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthResponse is the readiness payload
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// AboutResponse describes the running service
type AboutResponse struct {
	App         string `json:"app"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}

// StatusHealthy is the fixed status reported by /health
const StatusHealthy = "healthy"

// handleHello handles the liveness probe
func (s *Server) handleHello(c *gin.Context) {
	s.logger.Info("hello endpoint called")

	c.JSON(http.StatusOK, HelloResponse{
		Message: "Hello World!",
		Version: s.info.Version,
		Service: s.info.Name,
	})
}

// handleHealth handles the readiness probe; it checks no downstream dependency
func (s *Server) handleHealth(c *gin.Context) {
	s.logger.Debug("health check performed")

	c.JSON(http.StatusOK, HealthResponse{
		Status:  StatusHealthy,
		Service: s.info.Name,
	})
}

// handleAbout handles service information requests
func (s *Server) handleAbout(c *gin.Context) {
	s.logger.Info("about endpoint called")

	c.JSON(http.StatusOK, AboutResponse{
		App:         s.info.Name,
		Version:     s.info.Version,
		Environment: s.info.Environment,
	})
}

// handleNotFound handles unmatched routes
func (s *Server) handleNotFound(c *gin.Context) {
	path := c.Request.URL.Path
	s.logger.Warn("route not found", zap.String("path", path))

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error: "Not found",
		Path:  path,
	})
}

// handleMethodNotAllowed handles known routes requested with another method
func (s *Server) handleMethodNotAllowed(c *gin.Context) {
	path := c.Request.URL.Path
	s.logger.Warn("method not allowed",
		zap.String("method", c.Request.Method),
		zap.String("path", path))

	c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
		Error: "Method not allowed",
		Path:  path,
	})
}

// handlePanic turns a recovered handler panic into a 500 payload
func (s *Server) handlePanic(c *gin.Context, recovered any) {
	s.logger.Error("internal server error",
		zap.String("path", c.Request.URL.Path),
		zap.String("panic", fmt.Sprint(recovered)),
		zap.Stack("stack"))

	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Internal server error",
	})
}
