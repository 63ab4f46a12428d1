package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"routeline/internal/api"
	"routeline/internal/config"
	"routeline/internal/directions"
	"routeline/internal/geocode"
	"routeline/internal/logger"
	"routeline/internal/polyline"
	"routeline/internal/postgres"
	"routeline/internal/redis"
	"routeline/internal/service/route"
	"routeline/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "routeline"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if _, err := polyline.NewCodec(cfg.PolylinePrecision); err != nil {
		log.Fatal("invalid POLYLINE_PRECISION", zap.Int("precision", cfg.PolylinePrecision))
	}

	// Initialize database and cache
	db, err := postgres.Init(cfg.DBUrl)
	if err != nil {
		log.Fatal("failed to initialize PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Error("error closing PostgreSQL connection", zap.Error(err))
		}
	}()

	redisClient, err := redis.Init(cfg.RedisUrl)
	if err != nil {
		log.Fatal("failed to initialize Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("error closing Redis connection", zap.Error(err))
		}
	}()

	geocoder := geocode.NewNominatimGeocoder(geocode.Config{
		BaseURL:        cfg.GeocoderBaseURL,
		UserAgent:      cfg.GeocoderUserAgent,
		RequestsPerSec: cfg.GeocoderRPS,
		Timeout:        config.GeocoderTimeout,
		CacheTTL:       config.GeocodeCacheTTL,
	}, redis.NewCache(redisClient, "geocode"), log.Named("geocode"))

	provider := directions.NewGoogleProvider(cfg.DirectionsAPIKey, cfg.DirectionsBaseURL, config.DirectionsTimeout)

	routeService := route.NewRouteService(geocoder, provider, postgres.NewRouteStore(db), log.Named("route"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load persisted routes before serving
	if err := routeService.Load(ctx); err != nil {
		log.Fatal("failed to initialize route service", zap.Error(err))
	}

	workersDone := worker.StartAllWorkers(ctx, routeService, log.Named("worker"))

	srv := newServer(cfg, routeService, log)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// stopping the workers flushes the remaining dirty routes
	cancel()
	<-workersDone

	log.Info("stopped")
}

func newServer(cfg config.Config, routeService *route.RouteService, log *zap.Logger) *http.Server {
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	api.SetupRouter(r, api.Dependencies{
		Routes:            routeService,
		PolylinePrecision: cfg.PolylinePrecision,
		Info: map[string]string{
			"service":   serviceName,
			"env":       cfg.AppEnv,
			"precision": strconv.Itoa(cfg.PolylinePrecision),
		},
		Log: log.Named("http"),
	})

	return &http.Server{
		Addr:         cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
