package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"assembly-service/internal/audit"
	"assembly-service/internal/governance"
	"assembly-service/internal/handler"
	"assembly-service/internal/model"
	"assembly-service/internal/realtime"
	"assembly-service/internal/store"
	"assembly-service/pkg/config"
	"assembly-service/pkg/database"
	"assembly-service/pkg/jwtutil"
	"assembly-service/pkg/logger"
	"assembly-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting assembly-service", appConfig.LogConfig()...)

	// Percentages and coefficients are sent to clients as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize JWT utility
	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      appConfig.JWT.SigningKey,
		ExpirationHours: appConfig.JWT.ExpirationHours,
	})

	// Initialize Prometheus metrics
	metrics := prometheus.InitMetrics(appConfig.Metrics.Prefix, promclient.DefaultRegisterer)
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(&appConfig.DB, model.Models()...)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established", zap.String("driver", appConfig.DB.Driver))

	// Governance engine
	s := store.New(db)
	broadcaster := realtime.NewBroadcaster(appConfig.Governance.SubscriberBuffer, metrics)
	coordinator := governance.NewCoordinator(
		s,
		broadcaster,
		audit.NewGormRecorder(s),
		metrics,
		governance.OptionsFromConfig(appConfig.Governance),
	)

	e := handler.NewServer(handler.New(coordinator, db), jwtUtil, metrics, promhttp.Handler())

	// Start server
	port := appConfig.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	// Ending the event streams lets their handlers return before shutdown
	broadcaster.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
}
