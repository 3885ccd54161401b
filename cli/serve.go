package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/paularlott/toon-mcp/config"
	"github.com/paularlott/toon-mcp/logging"
	"github.com/paularlott/toon-mcp/mcp"
	"github.com/paularlott/toon-mcp/metrics"
	"github.com/paularlott/toon-mcp/rest"
	"github.com/paularlott/toon-mcp/tools"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 90 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio) or the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, v)
		},
	}
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Verbose: cfg.Verbose, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeHTTP:
		return serveHTTP(ctx, cfg, logger)
	default:
		s := newMCPServer(logger, nil)
		return s.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}
}

// newMCPServer builds the tool server. m may be nil.
func newMCPServer(logger *zap.SugaredLogger, m *metrics.Metrics) *mcp.Server {
	opts := []mcp.ServerOption{
		mcp.WithLogger(logger),
		mcp.WithInstructions(tools.Instructions),
	}
	if m != nil {
		opts = append(opts, mcp.WithToolMiddleware(m.ToolMiddleware()))
	}

	s := mcp.NewServer(serverName, Version, opts...)
	tools.Register(s)
	return s
}

func newHTTPHandler(logger *zap.SugaredLogger) http.Handler {
	m := metrics.New()
	return rest.NewRouter(rest.Config{
		Version: Version,
		Logger:  logger,
		MCP:     newMCPServer(logger, m),
		Metrics: m,
	})
}

func serveHTTP(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
	}
	logger.Infow("serving HTTP", "addr", ln.Addr().String(), "version", Version)
	return serveListener(ctx, ln, newHTTPHandler(logger), logger)
}

// serveListener serves handler on ln until ctx is done, then shuts down
// gracefully.
func serveListener(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.SugaredLogger) error {
	srv := &http.Server{
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Infow("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
