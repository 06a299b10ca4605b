package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/campscout/campscout/internal/db"
	"github.com/campscout/campscout/internal/providers"
)

type fakeProv struct {
	byState    map[string][]providers.Campground
	failStates map[string]bool
	stateCalls []string
}

func (f *fakeProv) Name() string { return "recreation_gov" }

func (f *fakeProv) FindCampgrounds(ctx context.Context, state string) ([]providers.Campground, error) {
	f.stateCalls = append(f.stateCalls, state)
	if f.failStates[state] {
		return nil, errors.New("upstream unavailable")
	}
	return f.byState[state], nil
}

func (f *fakeProv) FindCampgroundsByRecArea(ctx context.Context, ids []string) ([]providers.Campground, error) {
	return nil, nil
}

func (f *fakeProv) SearchAvailability(ctx context.Context, campgroundID string, start, end time.Time, nights int) ([]providers.SiteBooking, error) {
	return nil, nil
}

func (f *fakeProv) FindRecAreas(ctx context.Context, query, state string) ([]providers.RecArea, error) {
	return nil, nil
}

func (f *fakeProv) CampgroundURL(id string) string { return "" }
func (f *fakeProv) HomepageURL() string            { return "" }

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.duckdb")
	s, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(); _ = os.Remove(path) })
	return s
}

func newTestDirectory(t *testing.T, f *fakeProv, store *db.Store, states []string) *Directory {
	t.Helper()
	reg := providers.NewRegistry()
	reg.Register("recreation_gov", f)
	d := New(store, reg, "recreation_gov")
	d.states = states
	return d
}

func TestSyncCampgrounds(t *testing.T) {
	f := &fakeProv{
		byState: map[string][]providers.Campground{
			"CA": {{ID: "1", Name: "Upper Pines", State: "CA"}},
			"OR": {{ID: "2", Name: "Cape Lookout", State: "OR"}},
		},
		failStates: map[string]bool{"WA": true},
	}
	store := newTestStore(t)
	d := newTestDirectory(t, f, store, []string{"CA", "WA", "OR"})
	ctx := context.Background()

	count, err := d.SyncCampgrounds(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	// WA failed but the sync keeps going
	if count != 2 {
		t.Fatalf("want 2 synced, got %d", count)
	}
	if name, err := store.CampgroundName(ctx, "2"); err != nil || name != "Cape Lookout" {
		t.Fatalf("lookup after sync: %q %v", name, err)
	}

	// a second sync within 24h is skipped
	f.stateCalls = nil
	count, err = d.SyncCampgrounds(ctx)
	if err != nil || count != 0 {
		t.Fatalf("resync: count=%d err=%v", count, err)
	}
	if len(f.stateCalls) != 0 {
		t.Fatalf("resync should be skipped, got calls %v", f.stateCalls)
	}
}

func TestCampgroundNameStoreThenProviderScan(t *testing.T) {
	f := &fakeProv{byState: map[string][]providers.Campground{
		"CA": {{ID: "77", Name: "Kirk Creek", State: "CA"}},
	}}
	store := newTestStore(t)
	d := newTestDirectory(t, f, store, []string{"CA"})
	ctx := context.Background()

	// store miss falls through to the provider scan
	name, err := d.CampgroundName(ctx, "77")
	if err != nil || name != "Kirk Creek" {
		t.Fatalf("scan lookup: %q %v", name, err)
	}

	// after a sync the store answers without touching the provider
	if _, err := d.SyncCampgrounds(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	f.stateCalls = nil
	name, err = d.CampgroundName(ctx, "77")
	if err != nil || name != "Kirk Creek" {
		t.Fatalf("store lookup: %q %v", name, err)
	}
	if len(f.stateCalls) != 0 {
		t.Fatalf("store hit should not scan the provider, calls %v", f.stateCalls)
	}

	// unknown id is a miss, not an error
	name, err = d.CampgroundName(ctx, "nope")
	if err != nil || name != "" {
		t.Fatalf("miss: %q %v", name, err)
	}
}

func TestCampgroundNameWithoutStore(t *testing.T) {
	f := &fakeProv{byState: map[string][]providers.Campground{
		"CA": {{ID: "5", Name: "North Pines", State: "CA"}},
	}}
	reg := providers.NewRegistry()
	reg.Register("recreation_gov", f)
	d := New(nil, reg, "recreation_gov")

	name, err := d.CampgroundName(context.Background(), "5")
	if err != nil || name != "North Pines" {
		t.Fatalf("got %q %v", name, err)
	}
}
