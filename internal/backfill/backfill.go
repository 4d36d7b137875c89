// Package backfill geocodes stored resources that have no coordinates yet.
package backfill

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"resource-locator/internal/apperror"
	"resource-locator/internal/geocode"
	"resource-locator/internal/models"
	"resource-locator/pkg/geo"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the part of the resource store a backfill touches.
type Store interface {
	ListMissingCoordinates(ctx context.Context, limit int) ([]models.Resource, error)
	SetCoordinates(ctx context.Context, id string, p geo.Point) error
}

type Options struct {
	// Limit caps how many resources are attempted; 0 means all.
	Limit int
	// Workers is the number of concurrent geocode calls.
	Workers int
	// Region is appended to the name of resources without an address.
	Region string
	DryRun bool
}

// Report counts the outcome of one run.
type Report struct {
	Attempted int64
	Updated   int64
	NotFound  int64
	Failed    int64
}

// Run geocodes every unlocated resource once. Per-resource failures are
// logged and counted; only listing failures and cancellation abort the run.
func Run(ctx context.Context, st Store, gc geocode.Geocoder, opts Options, logger *zap.Logger) (Report, error) {
	var report Report

	pending, err := st.ListMissingCoordinates(ctx, opts.Limit)
	if err != nil {
		return report, err
	}
	logger.Info("Backfill starting", zap.Int("pending", len(pending)), zap.Bool("dry_run", opts.DryRun))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, r := range pending {
		r := r
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			atomic.AddInt64(&report.Attempted, 1)
			query := Query(r, opts.Region)
			log := logger.With(zap.String("id", r.ID), zap.String("name", r.Name), zap.String("query", query))

			res, err := gc.Geocode(gctx, query)
			switch {
			case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrInvalidInput):
				atomic.AddInt64(&report.NotFound, 1)
				log.Warn("No geocode match")
				return nil
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt64(&report.Failed, 1)
				log.Error("Geocoding failed", zap.Error(err))
				return nil
			}

			p := geo.Point{Lat: res.Latitude, Lng: res.Longitude}
			if opts.DryRun {
				log.Info("Would update coordinates", zap.Float64("lat", p.Lat), zap.Float64("lng", p.Lng))
				return nil
			}
			if err := st.SetCoordinates(gctx, r.ID, p); err != nil {
				atomic.AddInt64(&report.Failed, 1)
				log.Error("Updating coordinates failed", zap.Error(err))
				return nil
			}
			atomic.AddInt64(&report.Updated, 1)
			log.Info("Coordinates updated", zap.Float64("lat", p.Lat), zap.Float64("lng", p.Lng))
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return report, err
}

// Query is the text geocoded for r: its address, or its name qualified by
// region when the address is empty.
func Query(r models.Resource, region string) string {
	if addr := strings.TrimSpace(r.Address); addr != "" {
		return addr
	}
	name := strings.TrimSpace(r.Name)
	if region = strings.TrimSpace(region); region != "" && name != "" {
		return name + ", " + region
	}
	return name
}
