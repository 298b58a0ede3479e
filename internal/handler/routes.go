package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	mid "assembly-service/internal/middleware"
	"assembly-service/pkg/jwtutil"
	"assembly-service/pkg/logger"
	"assembly-service/prometheus"
)

// NewServer builds the echo instance serving health, metrics and the
// authenticated governance API
func NewServer(h *Handler, jwtUtil *jwtutil.JWTUtil, metrics *prometheus.Metrics, metricsHandler http.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware(metrics))
	e.Use(logger.Middleware())

	// Metrics endpoint
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	// Health check endpoint
	e.GET("/health", h.HealthCheck)

	// Governance API routes - every call runs with the identity from the JWT
	h.Register(e.Group("/api", mid.AuthMiddleware(jwtUtil, metrics)))

	return e
}
