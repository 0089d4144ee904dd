package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/cli/config"
	"github.com/conduit-lang/delivery/internal/cli/ui"
	"github.com/conduit-lang/delivery/internal/logging"
	"github.com/conduit-lang/delivery/internal/web/profiling"
	"github.com/conduit-lang/delivery/internal/web/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var (
		port    int
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the delivery API server",
		Long: `Start the HTTP server for the content delivery API.

Configuration is read from delivery.yaml (or --config) and DELIVERY_*
environment variables. The server stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cmd, cfg, migrate)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on (overrides server.port)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Create the content tables before serving")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config, migrate bool) error {
	ctx := cmd.Context()

	logger, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc, err := newServices(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if migrate {
		if err := svc.store.Migrate(ctx); err != nil {
			svc.Close()
			return err
		}
	}

	srv, err := newHTTPServer(cfg, svc)
	if err != nil {
		svc.Close()
		return err
	}

	gs := server.NewGracefulShutdown(srv, &server.ShutdownConfig{
		Timeout: cfg.Server.ShutdownTimeout,
		Logger:  server.ZapLogger(logger),
	})
	gs.RegisterHook(func(context.Context) error {
		return svc.Close()
	})

	if err := srv.Listen(); err != nil {
		svc.Close()
		return err
	}

	if cfg.Server.ProfilingAddr != "" {
		prof, err := startProfiling(cfg.Server.ProfilingAddr, logger)
		if err != nil {
			srv.Close()
			svc.Close()
			return err
		}
		gs.RegisterHook(prof.Shutdown)
		ui.Warn(cmd.OutOrStdout(), "Profiling endpoints on %s", prof.Addr())
	}

	out := cmd.OutOrStdout()
	ui.Success(out, "Delivery API listening on %s", srv.Addr())
	ui.Info(out, "Content endpoints under %s", cfg.Server.APIPrefix)
	logger.Info("server started",
		zap.String("addr", srv.Addr()),
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Backend),
		zap.Int("rate_limit_per_minute", cfg.RateLimit.PerMinute),
	)

	return gs.Run(ctx)
}

func newHTTPServer(cfg *config.Config, svc *services) (*server.Server, error) {
	serverConfig := server.DefaultConfig(svc.handler())
	serverConfig.Address = cfg.Server.Address()
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = cfg.Server.WriteTimeout
	if cfg.Server.RequestTimeout > 0 && serverConfig.WriteTimeout < cfg.Server.RequestTimeout+time.Second {
		serverConfig.WriteTimeout = cfg.Server.RequestTimeout + time.Second
	}
	if cfg.Server.TLSCertFile != "" {
		serverConfig.TLS = &server.TLSConfig{
			CertFile: cfg.Server.TLSCertFile,
			KeyFile:  cfg.Server.TLSKeyFile,
		}
	}
	return server.New(serverConfig)
}

// startProfiling serves pprof on its own listener so it never shares the
// public port
func startProfiling(addr string, logger *zap.Logger) (*server.Server, error) {
	config := server.DefaultConfig(profiling.Handler(profiling.DefaultConfig()))
	config.Address = addr
	// CPU profiles and traces stream for up to 30s by default
	config.WriteTimeout = 0

	srv, err := server.New(config)
	if err != nil {
		return nil, err
	}
	if err := srv.Listen(); err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("profiling server failed", zap.Error(err))
		}
	}()
	return srv, nil
}
