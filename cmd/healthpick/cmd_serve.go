package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/healthpick/healthpick/internal/catalog"
	httpapi "github.com/healthpick/healthpick/internal/interfaces/http"
	"github.com/healthpick/healthpick/internal/interfaces/http/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recommendation HTTP server",
	Long: `Run the HTTP server with the vitals poller. The API serves ranked
recommendations, accepts like/skip feedback, and streams vitals updates over
a websocket.

Examples:
  healthpick serve
  healthpick serve --config config/healthpick.yaml --verbose`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(appOptions{})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.feed.Start(ctx)

	h := &handlers.Handlers{
		Cascade:  a.cascade,
		Store:    a.store,
		Feed:     a.feed,
		Pool:     func() []catalog.Item { return a.pool },
		Menus:    a.menus,
		Prefs:    a.cfg.Prefs,
		Macros:   a.macros,
		Evidence: a.evidence,
		Oracle:   a.oracle,
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         a.cfg.Server.Host,
		Port:         a.cfg.Server.Port,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}, h)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	}
}
