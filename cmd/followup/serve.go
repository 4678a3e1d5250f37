package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/warp/followup-engine/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the due-task notifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, store, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		log := zap.L()
		router := api.NewRouter(api.NewHandler(svc), api.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			ParseRate:      rate.Limit(cfg.Parse.RatePerSec),
			ParseBurst:     cfg.Parse.Burst,
			Logger:         log,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		notifier := api.NewDueTaskNotifier(svc, log)
		notifier.Enabled = cfg.Notifier.Enabled
		notifier.CheckInterval = cfg.Notifier.Interval

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("starting server", zap.Int("port", port), zap.String("driver", store.Driver()))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			notifier.Start()
			<-gctx.Done()
			notifier.Stop()
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
