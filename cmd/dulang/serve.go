package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/dulang/warehouse-verify/pkg/i18n"
	"github.com/dulang/warehouse-verify/pkg/verification"
	"github.com/dulang/warehouse-verify/pkg/web"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the verification API and preview server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}
			cc, err := cfg.CameraConfig()
			if err != nil {
				return err
			}

			cat, err := catalog.NewSeededMemory(logger)
			if err != nil {
				return err
			}
			tr, err := i18n.LoadEmbedded(i18n.Language(cfg.Language))
			if err != nil {
				return err
			}
			dev, err := newDevice(cfg, logger)
			if err != nil {
				return err
			}
			cams := camera.NewManager(cc)
			cams.OnConfigChange = func(c camera.Config) {
				logger.Info("camera config changed", "width", c.Width, "height", c.Height, "quality", c.Quality)
			}
			reg := verification.NewRegistry(dev, cams, cfg.RegistryConfig(), logger)

			srv := web.NewServer(web.Deps{
				Catalog:    cat,
				Registry:   reg,
				Translator: tr,
				Inspector:  cfg.Verifier(),
				Logger:     logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.Listen(cfg.Addr()) }()

			select {
			case err := <-errc:
				reg.CloseAll()
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down", "open_workspaces", reg.Len())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port; overrides DULANG_PORT")
	return cmd
}
