// Package directory maintains a local campground directory so display
// names resolve without re-enumerating a state per request. Without a
// store it degrades to the provider-backed linear scan.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campscout/campscout/internal/db"
	"github.com/campscout/campscout/internal/geo"
	"github.com/campscout/campscout/internal/providers"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// scanState is the single state enumerated when falling back to a
// provider scan, matching the search default's most popular scope.
const scanState = "CA"

type Directory struct {
	store    *db.Store
	reg      *providers.Registry
	provider string
	states   []string
	logger   *slog.Logger
}

// New builds a directory. store may be nil; name lookups then always go
// through the provider scan.
func New(store *db.Store, reg *providers.Registry, provider string) *Directory {
	return &Directory{
		store:    store,
		reg:      reg,
		provider: provider,
		states:   geo.FallbackStates,
		logger:   slog.Default(),
	}
}

// CampgroundName implements availability.NameLookup: store first, then
// a best-effort provider scan. A miss is an empty name, not an error.
func (d *Directory) CampgroundName(ctx context.Context, campgroundID string) (string, error) {
	if d.store != nil {
		name, err := d.store.CampgroundName(ctx, campgroundID)
		if err != nil {
			d.logger.Warn("directory lookup failed", slog.Any("err", err))
		} else if name != "" {
			return name, nil
		}
	}
	prov, ok := d.reg.Get(d.provider)
	if !ok {
		return "", fmt.Errorf("unknown provider: %s", d.provider)
	}
	cgs, err := prov.FindCampgrounds(ctx, scanState)
	if err != nil {
		return "", err
	}
	for _, cg := range cgs {
		if cg.ID == campgroundID {
			return cg.Name, nil
		}
	}
	return "", nil
}

// SyncCampgrounds pulls the campground listing for every breadth-search
// state into the store. Per-state failures are logged and skipped so one
// bad scope doesn't abort the whole refresh.
func (d *Directory) SyncCampgrounds(ctx context.Context) (int, error) {
	if d.store == nil {
		return 0, fmt.Errorf("no store configured")
	}
	prov, ok := d.reg.Get(d.provider)
	if !ok {
		return 0, fmt.Errorf("unknown provider: %s", d.provider)
	}

	// Skip if a successful sync finished within the last 24h.
	if last, ok, err := d.store.GetLastSuccessfulSync(ctx, "campgrounds", d.provider); err == nil && ok {
		if time.Since(last) < 24*time.Hour {
			d.logger.Info("skip campground sync; recently synced",
				slog.String("provider", d.provider), slog.Time("last", last))
			return 0, nil
		}
	} else if err != nil {
		d.logger.Warn("get last sync failed", slog.Any("err", err))
	}

	started := time.Now()
	// one state every 2 seconds keeps the refresh gentle on the provider
	limiter := rate.NewLimiter(rate.Every(2*time.Second), 1)
	count := 0

	for _, state := range d.states {
		if err := limiter.Wait(ctx); err != nil {
			return count, err
		}
		cgs, err := prov.FindCampgrounds(ctx, state)
		if err != nil {
			d.logger.Warn("state sync failed",
				slog.String("provider", d.provider),
				slog.String("state", state),
				slog.Any("err", err))
			continue
		}
		if err := d.store.UpsertCampgroundBatch(ctx, d.provider, cgs); err != nil {
			d.recordSync(ctx, started, false, err.Error(), count)
			return count, err
		}
		count += len(cgs)
		d.logger.Debug("synced state",
			slog.String("state", state), slog.Int("campgrounds", len(cgs)))
	}

	d.recordSync(ctx, started, true, "", count)
	d.logger.Info("campground sync completed",
		slog.String("provider", d.provider), slog.Int("count", count))
	return count, nil
}

func (d *Directory) recordSync(ctx context.Context, started time.Time, success bool, errMsg string, count int) {
	err := d.store.RecordSync(ctx, db.SyncLog{
		SyncType:   "campgrounds",
		Provider:   d.provider,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Success:    success,
		Err:        errMsg,
		Count:      int64(count),
	})
	if err != nil {
		d.logger.Warn("record sync failed", slog.Any("err", err))
	}
}

// RunScheduledSync refreshes the directory on a cron schedule until the
// context is cancelled. An immediate sync runs first so a fresh deploy
// doesn't serve generic names for up to a day.
func (d *Directory) RunScheduledSync(ctx context.Context, spec string) error {
	if _, err := d.SyncCampgrounds(ctx); err != nil {
		d.logger.Error("initial campground sync failed", slog.Any("err", err))
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := d.SyncCampgrounds(ctx); err != nil {
			d.logger.Error("scheduled campground sync failed", slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("bad cron spec %q: %w", spec, err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
