package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/stockdesk/internal/bootstrap"
	"github.com/mamadbah2/stockdesk/internal/config"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	backfillsvc "github.com/mamadbah2/stockdesk/internal/service/backfill"
	"github.com/mamadbah2/stockdesk/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		envFile string
		opts    backfillsvc.Options
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Copy quantity and order number out of sale log details",
		Long: "Scans stock_out logs whose quantity or order_number column is empty, parses the\n" +
			"legacy details text and writes the structured columns.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Server.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := bootstrap.OpenStore(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := backfillsvc.NewService(store, models.LegacyDetailsParser{}, log.Named("svc.backfill"))
			result, err := svc.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			cmd.Printf("scanned=%d updated=%d defaulted=%d failed=%d\n",
				result.Scanned, result.Updated, result.Defaulted, result.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "optional .env file to load")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of logs to scan (0 means all)")

	return cmd
}
