package main

import (
	"fmt"
	"log/slog"

	"github.com/dulang/warehouse-verify/internal/config"
	"github.com/dulang/warehouse-verify/internal/log"
	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/camera/opencv"
	"github.com/spf13/cobra"
)

// globalFlags override the environment.
type globalFlags struct {
	logLevel string
	backend  string
	preset   string
}

var flags globalFlags

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dulang",
		Short:        "Warehouse product verification",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides DULANG_LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&flags.backend, "backend", "", "camera backend (mock, opencv); overrides DULANG_CAMERA_BACKEND")
	cmd.PersistentFlags().StringVar(&flags.preset, "preset", "", "camera preset; overrides DULANG_CAMERA_PRESET")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(catalogCmd())
	cmd.AddCommand(snapCmd())
	return cmd
}

// loadConfig reads the environment, applies flag overrides and installs
// the global logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.Overrides{
		LogLevel: flags.logLevel,
		Backend:  flags.backend,
		Preset:   flags.preset,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log.Init(cfg.LogOptions()), nil
}

// newDevice builds the configured camera backend. Sessions pass their own
// resolution and device mapping on every acquisition.
func newDevice(cfg config.Config, logger *slog.Logger) (camera.Device, error) {
	switch cfg.Camera.Backend {
	case config.BackendMock:
		return camera.NewMockDevice(camera.MaxWidth, camera.MaxHeight), nil
	case config.BackendOpenCV:
		return opencv.NewDevice(logger), nil
	}
	return nil, fmt.Errorf("unknown camera backend %q", cfg.Camera.Backend)
}
