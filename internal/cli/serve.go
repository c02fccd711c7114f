package cli

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tablevc/tablevc/internal/db"
	"github.com/tablevc/tablevc/internal/server"
)

var (
	serveListen    string
	serveLogLevel  string
	serveLogFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tablevc HTTP server",
	Long: `Start the tablevc HTTP server over the repository.

The server exposes branch-scoped table operations:

  POST /api/create_table
  POST /api/update_table
  GET  /api/read_table

Examples:
  tablevc serve
  tablevc serve --listen 0.0.0.0:8750
  tablevc --repo /var/lib/tablevc serve`,
	Run: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveListen, "listen", envOrDefault("TABLEVC_LISTEN", ""), "Listen address (host:port, default from config)")
	f.StringVar(&serveLogLevel, "log-level", envOrDefault("TABLEVC_LOG_LEVEL", ""), "Log level (debug|info|warn|error, default from config)")
	f.StringVar(&serveLogFormat, "log-format", envOrDefault("TABLEVC_LOG_FORMAT", ""), "Log format (json|text, default from config)")
}

func runServe(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	listen := serveListen
	if listen == "" {
		listen = c.Config.Listen
	}

	logger := newLogger(firstNonEmpty(serveLogLevel, c.Config.LogLevel), firstNonEmpty(serveLogFormat, c.Config.LogFormat))

	// One handle for the process lifetime; the server serializes access
	// to its branch cursor through the shared scope.
	handle := db.NewRepository(c.Store, c.Config.Author())
	h := server.Handler(handle, server.DefaultServerConfig(), logger)

	srv := &http.Server{
		Addr:         listen,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return context.Background() },
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting tablevc server", "listen", listen, "repo", c.Config.Path())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
