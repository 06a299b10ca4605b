// Package search turns an ambiguous location query into provider
// queries and aggregates the results into a canonical, deduplicated
// campground list.
package search

import (
	"context"
	"log/slog"

	"github.com/campscout/campscout/internal/geo"
	"github.com/campscout/campscout/internal/providers"
)

// Source is the identifier reported in every response envelope,
// including the fallback placeholder.
const Source = "recreation.gov"

const DefaultLimit = 20

// Query is a campground search request. RecAreaIDs take precedence: when
// present, location/state resolution is skipped entirely.
type Query struct {
	Location   string
	State      string
	RecAreaIDs []string
	Limit      int
}

// Result is the canonical campground shape returned to callers. It is
// built fresh per request and never persisted.
type Result struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	State          string   `json:"state"`
	City           string   `json:"city"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Activities     []string `json:"activities"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	ReservationURL string   `json:"reservation_url"`
	FacilityID     string   `json:"recreation_gov_id"`
}

type Response struct {
	Success    bool     `json:"success"`
	Data       []Result `json:"data"`
	TotalCount int      `json:"total_count"`
	Source     string   `json:"source"`
}

type RecAreaResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RecAreaResponse struct {
	Success bool            `json:"success"`
	Data    []RecAreaResult `json:"data"`
}

type Service struct {
	reg      *providers.Registry
	provider string
	logger   *slog.Logger
}

func NewService(reg *providers.Registry, provider string) *Service {
	return &Service{reg: reg, provider: provider, logger: slog.Default()}
}

// Search runs the full pipeline: plan provider calls, normalize raw
// records, deduplicate, and fall back to a placeholder when everything
// comes back empty. It never returns a hard failure; provider errors
// degrade to fewer (or placeholder) results.
func (s *Service) Search(ctx context.Context, q Query) *Response {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	prov, ok := s.reg.Get(s.provider)
	if !ok {
		s.logger.Error("provider not registered", slog.String("provider", s.provider))
		return s.respond(nil, "", limit)
	}

	var raw []providers.Campground
	scope := ""

	if len(q.RecAreaIDs) > 0 {
		cgs, err := prov.FindCampgroundsByRecArea(ctx, q.RecAreaIDs)
		if err != nil {
			s.logger.Warn("rec area lookup failed",
				slog.Any("rec_area_ids", q.RecAreaIDs),
				slog.Any("err", err))
		}
		raw = cgs
	} else {
		state, resolved := geo.Resolve(q.Location, q.State)
		scopes := []string{state}
		if resolved {
			scope = state
		} else {
			scopes = geo.FallbackStates
		}
		s.logger.Info("planned search scopes",
			slog.String("location", q.Location),
			slog.Bool("resolved", resolved),
			slog.Int("scopes", len(scopes)))

		seen := map[string]struct{}{}
		for _, st := range scopes {
			cgs, err := prov.FindCampgrounds(ctx, st)
			if err != nil {
				// best-effort aggregation: a failed scope counts as empty
				s.logger.Warn("campground lookup failed",
					slog.String("state", st),
					slog.Any("err", err))
				continue
			}
			for _, cg := range filterByLocation(cgs, q.Location) {
				if _, dup := seen[cg.ID]; dup {
					continue
				}
				seen[cg.ID] = struct{}{}
				raw = append(raw, cg)
			}
			// stop early once the breadth search has enough unique results
			if len(raw) >= limit {
				break
			}
		}
	}

	results := make([]Result, 0, len(raw))
	for _, cg := range raw {
		results = append(results, normalize(cg, prov))
	}
	return s.respond(results, scope, limit)
}

func (s *Service) respond(results []Result, scope string, limit int) *Response {
	data, total := finalize(results, limit, scope)
	return &Response{Success: true, Data: data, TotalCount: total, Source: Source}
}

// SearchRecAreas finds recreation areas by name so callers can follow up
// with a rec-area-scoped campground search.
func (s *Service) SearchRecAreas(ctx context.Context, query, state string) (*RecAreaResponse, error) {
	prov, ok := s.reg.Get(s.provider)
	if !ok {
		return nil, &UnknownProviderError{Provider: s.provider}
	}
	areas, err := prov.FindRecAreas(ctx, query, state)
	if err != nil {
		return nil, err
	}
	out := make([]RecAreaResult, 0, len(areas))
	for _, a := range areas {
		out = append(out, RecAreaResult{ID: a.ID, Name: a.Name})
	}
	return &RecAreaResponse{Success: true, Data: out}, nil
}

type UnknownProviderError struct{ Provider string }

func (e *UnknownProviderError) Error() string { return "unknown provider: " + e.Provider }
