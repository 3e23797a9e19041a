package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code-review-client/config"
	"code-review-client/controllers"
	"code-review-client/middleware"
	"code-review-client/monitor"
	"code-review-client/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load configuration:", err)
	}

	logger, logFile := config.InitLogging(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	// Set Gin mode
	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()))
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	reg := prometheus.NewRegistry()
	mon := monitor.New(reg)
	router.Use(mon.Middleware())
	mon.Register(router)
	monitor.RegisterLogsRoute(router, config.LogFilePath(cfg), cfg.Server.MonitorToken)

	opts := []controllers.Option{controllers.WithLogger(logger)}
	if mailer := config.NewMailer(cfg.SMTP); mailer != nil {
		opts = append(opts, controllers.WithMailer(mailer))
		logger.Info("review emails enabled")
	}
	backend := controllers.NewBackend(
		middleware.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.JWTExpireHours),
		opts...,
	)

	// Setup routes
	routes.SetupRoutes(router, backend, routes.Limits{
		LoginPerMinute:    cfg.Server.LoginRatePerMinute,
		RegisterPerMinute: cfg.Server.RegisterRatePerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("🚀 Development backend starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
	backend.Wait()
	logger.Info("server stopped")
}
