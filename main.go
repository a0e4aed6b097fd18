package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/config"
	"front/controllers"
	"front/middlewares"
	"front/mockapi"
	"front/routes"
	"front/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.HotReload)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.HotReload {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connections, err := config.NewConnectionStore(cfg.ConnectionFile)
	if err != nil {
		return err
	}

	var servers []*http.Server
	upstreamURL := cfg.DefaultUpstreamURL
	if cfg.MockAPI {
		mock, err := mockapi.NewFromConfig(ctx, cfg.Mock, logger.Named("mockapi"))
		if err != nil {
			return fmt.Errorf("failed to start mock api: %w", err)
		}
		defer mock.Close()

		mockServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Mock.Port),
			Handler: mock.Router(),
		}
		servers = append(servers, mockServer)
		go serve(mockServer, logger.Named("mockapi"))

		// a saved connection endpoint still takes precedence
		upstreamURL = cfg.Mock.URL()
		logger.Info("mock api enabled", zap.String("url", upstreamURL))
	}

	clients, err := services.NewClientHolder(connections, upstreamURL, logger)
	if err != nil {
		return err
	}
	defer clients.Current().Close()

	sessions, err := services.NewSessionStore(cfg.Session.RedisURL, cfg.Session.TTL)
	if err != nil {
		return err
	}

	router, err := routes.SetupRouter(routes.Deps{
		Controller: controllers.NewController(clients, connections, logger),
		Sessions:   sessions,
		Session: middlewares.SessionOptions{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.Secure,
		},
		Logger:    logger,
		HotReload: cfg.HotReload,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}
	servers = append(servers, server)
	go serve(server, logger)
	logger.Info("server starting", zap.Int("port", cfg.Port))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.String("addr", s.Addr), zap.Error(err))
		}
	}
	return nil
}

func serve(s *http.Server, logger *zap.Logger) {
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen failed", zap.String("addr", s.Addr), zap.Error(err))
	}
}
