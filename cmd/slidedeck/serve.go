package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/cli"
	"github.com/aretw0/slidedeck/internal/presentation/tui"
	slidehttp "github.com/aretw0/slidedeck/pkg/adapters/http"
	"github.com/aretw0/slidedeck/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the presentation store and live editing sessions over HTTP.
The API is described at /openapi.yaml and browsable at /swagger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, b, logger, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Server.Addr, _ = flags.GetString("addr")
		}
		quiet, _ := flags.GetBool("quiet")
		saveOnShutdown, _ := flags.GetBool("save-on-shutdown")

		opts := []slidehttp.Option{
			slidehttp.WithLogger(logger),
			slidehttp.WithUploadRate(cfg.Server.UploadRate, cfg.Server.UploadBurst),
			slidehttp.WithRequestTimeout(cfg.Server.RequestTimeout),
			slidehttp.WithSessionOptions(b.SessionOptions(logger)...),
			slidehttp.WithEditorOptions(b.EditorOptions()...),
		}
		if len(cfg.Server.CORSOrigins) > 0 {
			opts = append(opts, slidehttp.WithCORSOrigins(cfg.Server.CORSOrigins...))
		}
		if b.Images != nil {
			opts = append(opts, slidehttp.WithImageStore(b.Images))
		}
		if cfg.Metrics.Enabled {
			opts = append(opts, slidehttp.WithMetrics(observability.NewMetrics(cfg.Metrics.Namespace)))
		}
		api := slidehttp.NewServer(b.Store, opts...)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if b.Watch != nil {
			go func() {
				if err := api.Sessions.Watch(sigCtx, b.Watch); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("Presentation watch stopped", "err", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if !quiet {
			tui.PrintBanner(cmd.ErrOrStderr(), slidedeck.Version,
				"listening on "+cfg.Server.Addr,
				"store: "+b.Name,
			)
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server", "addr", cfg.Server.Addr, "store", b.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-sigCtx.Done():
		}

		logger.Info("Shutting down", "signal", sigCtx.Signal())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				logger.Error("Error killing server", "err", err)
			}
		}
		if saveOnShutdown {
			if err := api.Sessions.SaveAll(ctx); err != nil {
				return fmt.Errorf("saving open sessions: %w", err)
			}
		}
		logger.Info("Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	serveCmd.Flags().Bool("save-on-shutdown", false, "Save every open editing session before exiting")
}
