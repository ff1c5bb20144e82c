package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/weave/internal/presentation/tui"
	httpAdapter "github.com/aretw0/weave/pkg/adapters/http"
	redisAdapter "github.com/aretw0/weave/pkg/adapters/redis"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts a workspace and exposes it as a JSON API over HTTP, with an SSE stream of
notifications on /events. When redis.addr is configured, notifications are also
published to a Redis channel. When started with --config, SIGHUP reloads the graph
section of that file and reconciles the workspace with it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.HTTP.Addr = addr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := a.redis(ctx)
		if err != nil {
			return err
		}
		if client != nil {
			relay := redisAdapter.NewRelay(client,
				redisAdapter.WithChannel(a.cfg.Redis.Channel),
				redisAdapter.WithLogger(a.logger),
			)
			if err := relay.Start(ctx, a.workspace); err != nil {
				return err
			}
			defer relay.Close()
			a.logger.Info("Relaying notifications to Redis", "addr", a.cfg.Redis.Addr, "channel", relay.Channel())
		}

		if a.path != "" {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						if err := a.reload(a.path); err != nil {
							a.logger.Error("Reload failed", "path", a.path, "err", err)
						}
					}
				}
			}()
		}

		opts := []httpAdapter.Option{httpAdapter.WithLogger(a.logger)}
		if a.registry != nil {
			opts = append(opts, httpAdapter.WithMetrics(a.registry))
		}
		handler := httpAdapter.New(a.workspace, opts...)
		defer handler.Close()

		srv := &http.Server{
			Addr:    a.cfg.HTTP.Addr,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)
		go func() {
			tui.PrintBanner(cmd.ErrOrStderr())
			a.logger.Info("Starting Weave Server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			a.logger.Info("Start shutdown...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			a.logger.Info("Weave Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
