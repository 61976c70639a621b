package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-cards/internal/render"
	"github.com/naka-gawa/repo-cards/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves repository cards over HTTP",
	Long: `Starts an HTTP server.

  GET /repos?ids=owner/name,owner/name   HTML card grid
  GET /api/repos?ids=owner/name          JSON
  GET /healthz                           liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		logger := newLogger(cmd)

		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		settleTimeout, _ := cmd.Flags().GetDuration("settle-timeout")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		loader, kv, err := newLoader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer kv.Close()

		handler := server.NewHandler(loader, render.NewFormatter(cfg.Locale, time.Local), cfg.Locale, settleTimeout, logger)
		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           server.SetupRoutes(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Address to listen on (env REPO_CARDS_LISTEN_ADDR)")
	serveCmd.Flags().Duration("settle-timeout", 10*time.Second, "How long a request waits for GitHub before rendering what it has")
	addCacheFlags(serveCmd)
}
