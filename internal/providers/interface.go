package providers

import (
	"context"
	"time"
)

// Campground is the provider-native campground record. Only ID and Name
// are guaranteed; every other field may be absent and callers must
// tolerate zero values.
type Campground struct {
	ID             string
	Name           string
	Description    string
	State          string
	City           string
	Latitude       *float64
	Longitude      *float64
	Activities     []string
	Phone          string
	Email          string
	RecreationArea string
}

// SiteBooking is one bookable site/date pair returned by an availability
// query. BookingDate is YYYY-MM-DD and may be empty if the provider did
// not attach a date to the record.
type SiteBooking struct {
	SiteID         string
	SiteName       string
	BookingDate    string
	BookingURL     string
	RecreationArea string
	FacilityName   string
	Nights         int
}

// RecArea is a recreation area as named by the provider.
type RecArea struct {
	ID   string
	Name string
}

type Provider interface {
	Name() string
	// FindCampgrounds returns all campgrounds in a state (two-letter code).
	FindCampgrounds(ctx context.Context, state string) ([]Campground, error)
	// FindCampgroundsByRecArea returns campgrounds belonging to the given
	// recreation areas, all IDs batched into a single upstream query.
	FindCampgroundsByRecArea(ctx context.Context, recAreaIDs []string) ([]Campground, error)
	// SearchAvailability returns site-level bookings for one campground
	// across [start, end) for stays of the given night count.
	SearchAvailability(ctx context.Context, campgroundID string, start, end time.Time, nights int) ([]SiteBooking, error)
	// FindRecAreas searches recreation areas by name, optionally bounded
	// to a state.
	FindRecAreas(ctx context.Context, query, state string) ([]RecArea, error)
	// CampgroundURL returns a link to the reservation page for a campground.
	CampgroundURL(campgroundID string) string
	// HomepageURL returns the provider's landing page.
	HomepageURL() string
}

type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry { return &Registry{providers: map[string]Provider{}} }

func (r *Registry) Register(name string, p Provider) { r.providers[name] = p }

func (r *Registry) Get(name string) (Provider, bool) { p, ok := r.providers[name]; return p, ok }
