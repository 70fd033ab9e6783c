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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/leafscan/internal/acquisition"
	"github.com/example/leafscan/internal/config"
	"github.com/example/leafscan/internal/handlers"
	"github.com/example/leafscan/internal/inference"
	"github.com/example/leafscan/internal/logging"
	"github.com/example/leafscan/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	var client inference.Client = inference.NewHTTPClient(cfg.InferenceEndpoint, nil, logger)
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient := initRedis(ctx, cfg.RedisAddr, logger)
		cancel()
		defer redisClient.Close()
		client = inference.NewCachedClient(client, inference.NewRedisCache(redisClient), cfg.CacheTTL, logger)
	}

	screen := usecase.NewDiagnosisUseCase(client, cfg.IncludeOverlay, logger)
	defer screen.Close()

	pickCfg := acquisition.DefaultPickConfig()
	pickCfg.Quality = cfg.PickQuality
	pickCfg.MaxDimension = cfg.PickMaxDimension

	r := gin.Default()
	r.MaxMultipartMemory = handlers.MaxUploadSize
	handlers.RegisterRoutes(r, screen, acquisition.StaticPermission(cfg.MediaAccessGranted()), pickCfg)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	logger.Info("leaf diagnosis screen listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("inference_endpoint", cfg.InferenceEndpoint),
		zap.Bool("cache", cfg.RedisAddr != ""),
	)
	if err := serveHTTPServer(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// initRedis exits when the configured cache cannot be reached.
func initRedis(ctx context.Context, addr string, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err), zap.String("addr", addr))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
