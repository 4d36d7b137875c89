package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"resource-locator/internal/backfill"
	"resource-locator/internal/geocode"
	"resource-locator/internal/store"
	"resource-locator/pkg/graceful"
)

func newBackfillCmd() *cobra.Command {
	var opts backfill.Options

	cmd := &cobra.Command{
		Use:   "backfill-coordinates",
		Short: "Geocode resources that have no latitude or longitude",
		Long: `Geocode every resource missing coordinates and store the result.

The resource address is geocoded; resources without an address are looked up
by name within --region. Failures are logged and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			gc, err := geocode.New(e.cfg.Geocoder)
			if err != nil {
				return err
			}

			ctx, cancel := graceful.Context(context.Background(), e.logger)
			defer cancel()

			report, err := backfill.Run(ctx, store.NewResourceStore(e.db), gc, opts, e.logger)
			fmt.Fprintf(cmd.OutOrStdout(), "attempted=%d updated=%d not_found=%d failed=%d\n",
				report.Attempted, report.Updated, report.NotFound, report.Failed)
			return err
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum resources to attempt (0 = all)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 2, "concurrent geocoding requests")
	cmd.Flags().StringVar(&opts.Region, "region", "Los Angeles, CA", "appended to the name of resources without an address")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "geocode but do not write coordinates")
	return cmd
}
