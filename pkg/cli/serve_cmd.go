package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"colstd/internal/api"
	"colstd/internal/middleware"
	"colstd/internal/profile"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the standardization API over HTTP",
		Long: `Start the HTTP API: POST /v1/standardize runs the standardization stage,
GET /v1/runs and GET /v1/runs/{id} expose the audit store when AUDIT_DB_PATH is set.
Request file paths must resolve inside DATA_DIR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.ListenAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := a.openDuckDB()
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			runs, closeRuns, err := a.openRuns()
			if err != nil {
				return err
			}
			defer closeRuns()

			handler := api.NewHandler(a.newService(runs), profile.NewProfiler(db), runs, a.logger)
			handler.SetDataDir(a.cfg.DataDir)
			if a.cfg.DataDir == "" {
				a.logger.Warn("DATA_DIR not set; requests with file_path will be rejected")
			}
			srv := &http.Server{
				Addr: a.cfg.ListenAddr,
				Handler: api.NewRouter(ctx, handler, api.RouterConfig{
					CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
					RateLimit: middleware.RateLimitConfig{
						RequestsPerSecond: a.cfg.RateLimitRPS,
						Burst:             a.cfg.RateLimitBurst,
					},
					Logger: a.logger,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("HTTP API listening", "addr", srv.Addr, "audit", a.cfg.AuditEnabled())
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address; overrides LISTEN_ADDR")
	return cmd
}
