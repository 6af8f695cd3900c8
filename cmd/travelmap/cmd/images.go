package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/templui/travelmap/internal/app"
	"github.com/templui/travelmap/internal/config"
	"github.com/templui/travelmap/internal/logger"
	"github.com/templui/travelmap/internal/service"
)

// ImagesCmd runs the admin batch jobs without going through HTTP, for
// libraries too large to finish inside a request.
func ImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Batch image maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "optimize",
		Short: "Re-encode stored images, keeping only smaller results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, func(ctx context.Context, s *service.LocationService) (service.BatchResult, error) {
				return s.OptimizeImages(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "thumbnails",
		Short: "Regenerate the thumbnail of every location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, func(ctx context.Context, s *service.LocationService) (service.BatchResult, error) {
				return s.GenerateThumbnails(ctx)
			})
		},
	})

	return cmd
}

func runBatch(cmd *cobra.Command, job func(context.Context, *service.LocationService) (service.BatchResult, error)) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := job(ctx, a.LocationService)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
