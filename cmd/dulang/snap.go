package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/spf13/cobra"
)

type snapOptions struct {
	count    int
	facing   string
	both     bool
	interval time.Duration
	outDir   string
}

func snapCmd() *cobra.Command {
	var opts snapOptions
	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Capture still photos from the camera and write them as JPEG files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			cc, err := cfg.CameraConfig()
			if err != nil {
				return err
			}
			dev, err := newDevice(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			paths, err := snap(ctx, dev, cc, opts, camera.WithLogger(logger))
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "photos per side")
	cmd.Flags().StringVar(&opts.facing, "facing", "back", "camera side: back (environment) or front (user)")
	cmd.Flags().BoolVar(&opts.both, "both", false, "switch to the other side and capture again")
	cmd.Flags().DurationVar(&opts.interval, "interval", 500*time.Millisecond, "delay between photos")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	return cmd
}

// snap captures inside a scoped session so the camera is released on
// every exit path, then writes whatever was captured.
func snap(ctx context.Context, dev camera.Device, cc camera.Config, opts snapOptions, sessOpts ...camera.Option) ([]string, error) {
	if opts.count < 1 {
		return nil, fmt.Errorf("count must be at least 1")
	}
	facing, err := camera.ParseFacing(opts.facing)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, err
	}

	var photos []camera.Photo
	err = camera.WithSession(ctx, dev, cc, func(ctx context.Context, s *camera.Session) error {
		defer func() { photos = s.Photos() }()

		if err := s.RequestStream(ctx, facing); err != nil {
			return err
		}
		if err := captureN(ctx, s, opts); err != nil {
			return err
		}
		if !opts.both {
			return nil
		}
		if err := s.SwitchFacing(ctx); err != nil {
			return err
		}
		return captureN(ctx, s, opts)
	}, sessOpts...)

	paths := make([]string, 0, len(photos))
	for i, p := range photos {
		path := filepath.Join(opts.outDir, fmt.Sprintf("snap-%02d-%s.jpg", i+1, p.Facing))
		if werr := os.WriteFile(path, p.Data, 0o644); werr != nil {
			return paths, werr
		}
		paths = append(paths, path)
	}
	return paths, err
}

func captureN(ctx context.Context, s *camera.Session, opts snapOptions) error {
	for i := range opts.count {
		if i > 0 && opts.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.interval):
			}
		}
		if _, err := s.Capture(); err != nil {
			return err
		}
	}
	return nil
}
