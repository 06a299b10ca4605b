// Package availability answers "which sites in this campground are
// bookable in this date window" as a structured report. Provider
// failures become an error-status report; only malformed input is
// returned as an error, and always before any provider call.
package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/campscout/campscout/internal/providers"
)

// Source is the identifier reported in every report.
const Source = "recreation.gov"

const dateLayout = "2006-01-02"

// ErrValidation wraps all pre-flight input validation failures.
var ErrValidation = errors.New("invalid availability query")

const (
	StatusSuccess        = "success"
	StatusNoAvailability = "no_availability"
	StatusError          = "error"
)

// Query identifies one campground and date window. Dates are
// YYYY-MM-DD; EndDate is exclusive.
type Query struct {
	CampgroundID string `json:"-"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Nights       int    `json:"nights"`
}

// Site is one bookable site/date entry.
type Site struct {
	CampsiteID     string `json:"campsite_id"`
	CampsiteTitle  string `json:"campsite_title"`
	BookingDate    string `json:"booking_date"`
	BookingURL     string `json:"booking_url"`
	RecreationArea string `json:"recreation_area"`
	FacilityName   string `json:"facility_name"`
	BookingNights  int    `json:"booking_nights"`
}

// Report is the full availability answer. Status is "success" iff at
// least one site entry exists, "error" iff the provider call failed,
// and "no_availability" otherwise.
type Report struct {
	Success             bool     `json:"success"`
	Error               string   `json:"error,omitempty"`
	CampgroundID        string   `json:"campground_id"`
	CampgroundName      string   `json:"campground_name"`
	SearchParameters    *Query   `json:"search_parameters,omitempty"`
	AvailableDates      []string `json:"available_dates"`
	AvailableSites      []Site   `json:"available_sites"`
	TotalSitesFound     int      `json:"total_sites_found"`
	TotalAvailableDates int      `json:"total_available_dates"`
	Source              string   `json:"source"`
	Status              string   `json:"status"`
	Message             string   `json:"message"`
}

// NameLookup resolves a campground's display name by id. Lookups are
// best-effort; a cache can be dropped in behind this boundary without
// touching the aggregator.
type NameLookup interface {
	CampgroundName(ctx context.Context, campgroundID string) (string, error)
}

type Checker struct {
	reg      *providers.Registry
	provider string
	names    NameLookup
	logger   *slog.Logger
}

func NewChecker(reg *providers.Registry, provider string, names NameLookup) *Checker {
	return &Checker{reg: reg, provider: provider, names: names, logger: slog.Default()}
}

// Check validates the query, resolves the campground name, queries the
// provider once, and aggregates site bookings into a sorted unique date
// list. A provider failure yields a well-formed error report, never a
// returned error.
func (c *Checker) Check(ctx context.Context, q Query) (*Report, error) {
	start, end, err := validate(q)
	if err != nil {
		return nil, err
	}

	name := c.lookupName(ctx, q.CampgroundID)

	prov, ok := c.reg.Get(c.provider)
	if !ok {
		return c.errorReport(q, name, fmt.Errorf("unknown provider: %s", c.provider)), nil
	}

	bookings, err := prov.SearchAvailability(ctx, q.CampgroundID, start, end, q.Nights)
	if err != nil {
		c.logger.Error("availability check failed",
			slog.String("campground", q.CampgroundID),
			slog.Any("err", err))
		return c.errorReport(q, name, err), nil
	}

	dateSet := map[string]struct{}{}
	sites := make([]Site, 0, len(bookings))
	for _, b := range bookings {
		// entries without a date stay in the site list but never count
		// toward the date set
		if b.BookingDate != "" {
			dateSet[b.BookingDate] = struct{}{}
		}
		facility := b.FacilityName
		if facility == "" {
			facility = name
		}
		sites = append(sites, Site{
			CampsiteID:     b.SiteID,
			CampsiteTitle:  b.SiteName,
			BookingDate:    b.BookingDate,
			BookingURL:     b.BookingURL,
			RecreationArea: b.RecreationArea,
			FacilityName:   facility,
			BookingNights:  b.Nights,
		})
	}
	dates := sortedDates(dateSet)

	status := StatusNoAvailability
	message := "No available sites found for the specified dates"
	if len(sites) > 0 {
		status = StatusSuccess
		message = fmt.Sprintf("Found %d available sites across %d dates", len(sites), len(dates))
	}

	return &Report{
		Success:             true,
		CampgroundID:        q.CampgroundID,
		CampgroundName:      name,
		SearchParameters:    &q,
		AvailableDates:      dates,
		AvailableSites:      sites,
		TotalSitesFound:     len(sites),
		TotalAvailableDates: len(dates),
		Source:              Source,
		Status:              status,
		Message:             message,
	}, nil
}

func validate(q Query) (time.Time, time.Time, error) {
	var zero time.Time
	if q.StartDate == "" || q.EndDate == "" {
		return zero, zero, fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	start, err := time.Parse(dateLayout, q.StartDate)
	if err != nil {
		return zero, zero, fmt.Errorf("%w: invalid start_date, use YYYY-MM-DD: %v", ErrValidation, err)
	}
	end, err := time.Parse(dateLayout, q.EndDate)
	if err != nil {
		return zero, zero, fmt.Errorf("%w: invalid end_date, use YYYY-MM-DD: %v", ErrValidation, err)
	}
	if !start.Before(end) {
		return zero, zero, fmt.Errorf("%w: start date must be before end date", ErrValidation)
	}
	if q.Nights <= 0 {
		return zero, zero, fmt.Errorf("%w: number of nights must be positive", ErrValidation)
	}
	return start, end, nil
}

// lookupName never blocks an availability check: any failure falls back
// to a generic display name.
func (c *Checker) lookupName(ctx context.Context, campgroundID string) string {
	if c.names != nil {
		name, err := c.names.CampgroundName(ctx, campgroundID)
		if err != nil {
			c.logger.Warn("campground name lookup failed",
				slog.String("campground", campgroundID),
				slog.Any("err", err))
		} else if name != "" {
			return name
		}
	}
	return "Campground " + campgroundID
}

func (c *Checker) errorReport(q Query, name string, cause error) *Report {
	return &Report{
		Success:             false,
		Error:               cause.Error(),
		CampgroundID:        q.CampgroundID,
		CampgroundName:      name,
		AvailableDates:      []string{},
		AvailableSites:      []Site{},
		TotalSitesFound:     0,
		TotalAvailableDates: 0,
		Source:              Source,
		Status:              StatusError,
		Message:             "Error checking availability: " + cause.Error(),
	}
}

// sortedDates returns the unique dates ascending; lexicographic order
// on YYYY-MM-DD equals chronological order.
func sortedDates(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
