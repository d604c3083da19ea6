package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorechart/internal/server"
)

const rateLimitCleanupInterval = 5 * time.Minute

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live update feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Port = port
			}
			return c.serve()
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides CHORECHART_PORT)")
	return cmd
}

func (c *cli) serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a, c.logger)

	httpServer := &http.Server{
		Addr:         ":" + c.cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(rateLimitCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("server starting", "addr", "http://localhost:"+c.cfg.Port, "db", c.cfg.DBPath, "backups", c.cfg.Backup.S3.Enabled())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		c.logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
