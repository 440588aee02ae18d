package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"WEAPON_DETECTOR/go-backend/internal/auth"
	"WEAPON_DETECTOR/go-backend/internal/config"
	"WEAPON_DETECTOR/go-backend/internal/database"
	"WEAPON_DETECTOR/go-backend/internal/handlers"
	"WEAPON_DETECTOR/go-backend/internal/services"
)

func main() {
	httpPort := flag.String("http-port", "", "HTTP port (overrides HTTP_PORT)")
	flag.Parse()

	cfg := config.LoadConfig()
	if *httpPort != "" {
		cfg.HTTPPort = *httpPort
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("starting",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("ai_stream", cfg.AIStreamURL),
		zap.String("database", cfg.DSNForLog()),
		zap.String("environment", cfg.Environment))

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	store := database.NewStore(db, cfg.DBDriver)
	if err := store.Seed(context.Background(), logger); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("token manager init failed", zap.Error(err))
	}

	metrics := services.NewMetrics()
	hub := services.NewHub(logger, metrics)
	h := handlers.New(store, tokens, hub, metrics, logger, cfg)

	// The access gate is composed explicitly per protected route.
	protected := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.RequireToken(tokens, next)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/login", h.Login)
	mux.HandleFunc("/register", h.Register)
	mux.HandleFunc("/logout", h.Logout)
	mux.HandleFunc("/change-password", protected(h.ChangePassword))
	mux.HandleFunc("/delete-account", protected(h.DeleteAccount))
	mux.HandleFunc("/user-info", protected(h.UserInfo))
	mux.HandleFunc("/user-profile", protected(h.UpdateProfile))

	mux.HandleFunc("/cameras", h.Cameras)
	mux.HandleFunc("/video", h.VideoStream)

	mux.HandleFunc("/weapon-preferences", protected(h.WeaponPreferences))
	mux.HandleFunc("/log-detection", protected(h.LogDetection))
	mux.HandleFunc("/detection-logs", h.DetectionLogs)
	mux.HandleFunc("/dashboard-data", protected(h.DashboardData))

	mux.HandleFunc("/public/current-detections", h.PublicCurrentDetections)
	mux.HandleFunc("/public/camera-status", h.PublicCameraStatus)

	mux.HandleFunc("/ws", h.LiveFeed)
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/metrics", h.MetricsSnapshot)

	httpServer := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     h.CORS(mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: /video and /ws hold their connections open.
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}

	hub.CloseAll()
	logger.Info("goodbye")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.LogLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.LogFormat == "console" || cfg.IsDev() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.OutputPaths = []string{"stdout"}
		zc.ErrorOutputPaths = []string{"stderr"}
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
