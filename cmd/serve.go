package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/api"
	"github.com/dmelero/compra/internal/changelog"
	"github.com/dmelero/compra/internal/config"
	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/sheet"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the list API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		svc, err := sheet.NewService(cmd.Context(), cfg.CredentialsJSON, cfg.SpreadsheetID)
		if err != nil {
			slog.Error("connect to sheets", "err", err)
			return err
		}
		store := sheet.NewStore(svc, cfg.SheetName)
		log := changelog.NewWriter(svc)
		service := ops.NewService(store, log)

		srv := api.NewServer(api.Config{ListenAddr: cfg.ListenAddr}, store, service)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Start(); err != nil {
			slog.Error("start server", "err", err)
			return err
		}
		slog.Info("server started", "addr", cfg.ListenAddr, "sheet", cfg.SheetName)

		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func setupLogging(cfg *config.Server) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
