package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook runs during graceful shutdown, after the server stops
// accepting requests
type ShutdownHook func(ctx context.Context) error

// Logger is the printf-style logger used for lifecycle messages
type Logger interface {
	Printf(format string, v ...interface{})
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// ZapLogger adapts a zap logger to Logger
func ZapLogger(logger *zap.Logger) Logger {
	return zapLogger{sugar: logger.Sugar()}
}

// ShutdownConfig holds graceful shutdown configuration
type ShutdownConfig struct {
	// Timeout bounds the whole shutdown, hooks included
	Timeout time.Duration
	// Signals to listen for (default: SIGINT, SIGTERM)
	Signals []os.Signal
	Logger  Logger
}

// DefaultShutdownConfig returns default shutdown configuration
func DefaultShutdownConfig() *ShutdownConfig {
	return &ShutdownConfig{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Logger:  ZapLogger(zap.NewNop()),
	}
}

// GracefulShutdown runs a server until a signal arrives or its context ends,
// then drains connections and runs the registered hooks
type GracefulShutdown struct {
	server  *Server
	timeout time.Duration
	signals []os.Signal
	logger  Logger

	mu    sync.Mutex
	hooks []ShutdownHook

	once sync.Once
	done chan struct{}
	err  error
}

// NewGracefulShutdown creates a new graceful shutdown handler
func NewGracefulShutdown(server *Server, config *ShutdownConfig) *GracefulShutdown {
	if config == nil {
		config = DefaultShutdownConfig()
	}
	if config.Logger == nil {
		config.Logger = ZapLogger(zap.NewNop())
	}
	if len(config.Signals) == 0 {
		config.Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &GracefulShutdown{
		server:  server,
		timeout: config.Timeout,
		signals: config.Signals,
		logger:  config.Logger,
		done:    make(chan struct{}),
	}
}

// RegisterHook registers a hook. Hooks run in registration order.
func (gs *GracefulShutdown) RegisterHook(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

// Run serves until ctx is done or a shutdown signal arrives
func (gs *GracefulShutdown) Run(ctx context.Context) error {
	if err := gs.server.Listen(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		gs.logger.Printf("Listening on %s", gs.server.Addr())
		if err := gs.server.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server failed: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, gs.signals...)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		gs.logger.Printf("Received %s, shutting down", sig)
	case <-ctx.Done():
		gs.logger.Printf("Context done, shutting down")
	case err := <-errChan:
		return err
	}
	return gs.Shutdown()
}

// Shutdown stops the server and runs the hooks once. Later calls wait for the
// first one and return its result.
func (gs *GracefulShutdown) Shutdown() error {
	gs.once.Do(func() {
		defer close(gs.done)

		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		if err := gs.server.Shutdown(ctx); err != nil {
			gs.err = fmt.Errorf("server shutdown error: %w", err)
			gs.logger.Printf("Server shutdown error: %v", err)
		}

		gs.mu.Lock()
		hooks := append([]ShutdownHook(nil), gs.hooks...)
		gs.mu.Unlock()

		for i, hook := range hooks {
			if err := hook(ctx); err != nil {
				gs.logger.Printf("Shutdown hook %d failed: %v", i, err)
			}
		}
		gs.logger.Printf("Shutdown complete")
	})

	<-gs.done
	return gs.err
}

// Wait blocks until shutdown is complete
func (gs *GracefulShutdown) Wait() error {
	<-gs.done
	return gs.err
}
