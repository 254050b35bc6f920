package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/reflection"

	"chatsync/internal/di"
)

func main() {
	cfg := di.ProvideConfig()

	app, cleanup, err := di.InitializeFeedService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize feed service")
	}
	defer cleanup()
	logger := app.Log

	reflection.Register(app.GRPC)

	lis, err := net.Listen("tcp", ":"+cfg.Server.FeedPort)
	if err != nil {
		logger.Fatal().Err(err).Str("port", cfg.Server.FeedPort).Msg("Failed to listen")
	}

	go func() {
		logger.Info().Str("port", cfg.Server.FeedPort).Msg("Change feed running")
		if err := app.GRPC.Serve(lis); err != nil {
			logger.Fatal().Err(err).Msg("Failed to serve change feed")
		}
	}()

	go func() {
		logger.Info().Str("addr", app.Health.Addr).Msg("Health server running")
		if err := app.Health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to serve health routes")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down feed service...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Health.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("Health server shutdown")
	}
	app.GRPC.GracefulStop()
	logger.Info().Msg("Feed service stopped")
}
