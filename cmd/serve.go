package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/monitoring"
	"github.com/sells-group/employer-resolve/internal/server"
	"github.com/sells-group/employer-resolve/internal/store"
)

var (
	servePort    int
	serveNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolver HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		scorer, err := initScorer()
		if err != nil {
			return err
		}

		var st store.Store
		if !serveNoStore {
			if st, err = openStore(ctx); err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			if cfg.Monitoring.Enabled {
				checker := monitoring.NewChecker(
					monitoring.NewCollector(st),
					monitoring.NewAlerter(cfg.Monitoring),
					cfg.Monitoring,
				)
				go checker.Run(ctx)
			}
		}

		srv := server.New(scorer, st, server.Config{
			Port:           port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Threshold:      cfg.Resolve.Threshold,
			Canonical:      cfg.Resolve.Canonical,
			Workers:        cfg.Resolve.Workers,
			MaxNames:       cfg.Server.MaxNames,
		}).HTTPServer()

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.WithoutCancel(ctx)) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Bool("store", st != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "serve without the run store")
	rootCmd.AddCommand(serveCmd)
}
