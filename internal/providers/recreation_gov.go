package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/campscout/campscout/internal/httpx"
)

const recGovBase = "https://www.recreation.gov"

type RecreationGov struct {
	client *httpx.Client
}

func NewRecreationGov() *RecreationGov {
	return &RecreationGov{
		// one request every 500ms with a small burst keeps us well under
		// the thresholds that trip recreation.gov's rate limiting
		client: httpx.New(500*time.Millisecond, 3),
	}
}

func (r *RecreationGov) Name() string { return "recreation_gov" }

// CampgroundURL implements providers.Provider
func (r *RecreationGov) CampgroundURL(campgroundID string) string {
	if campgroundID == "" {
		return ""
	}
	return recGovBase + "/camping/campgrounds/" + campgroundID
}

// CampsiteURL returns a link to the campsite details page.
func (r *RecreationGov) CampsiteURL(campsiteID string) string {
	if campsiteID == "" {
		return ""
	}
	return recGovBase + "/camping/campsites/" + campsiteID
}

// HomepageURL implements providers.Provider
func (r *RecreationGov) HomepageURL() string { return recGovBase }

func (r *RecreationGov) getJSON(ctx context.Context, endpoint string, v any) error {
	resp, err := r.client.Get(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("GET failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read body failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recreation.gov status %d; body: %s", resp.StatusCode, clipBody(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("JSON decode failed: %w; body: %s", err, clipBody(body))
	}
	return nil
}

// searchResult mirrors the subset of the recreation.gov search API payload we use.
type searchResult struct {
	Name        string `json:"name"`
	EntityID    string `json:"entity_id"`
	EntityType  string `json:"entity_type"`
	Description string `json:"description"`
	City        string `json:"city"`
	StateCode   string `json:"state_code"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	ParentName  string `json:"parent_name"`
	Reservable  bool   `json:"reservable"`
	Activities  []struct {
		ActivityName string `json:"activity_name"`
	} `json:"activities"`
}

// searchEntities pages through the recreation.gov search API with the
// given filter queries, collecting every result.
func (r *RecreationGov) searchEntities(ctx context.Context, filters []string, query string) ([]searchResult, error) {
	start := 0
	size := 100
	var all []searchResult
	for {
		q := url.Values{}
		for _, f := range filters {
			q.Add("fq", f)
		}
		if query != "" {
			q.Set("q", query)
		}
		q.Set("size", strconv.Itoa(size))
		q.Set("start", strconv.Itoa(start))
		endpoint := recGovBase + "/api/search?" + q.Encode()
		slog.Debug("fetching recreation.gov search page", slog.String("url", endpoint))

		var page struct {
			Results []searchResult `json:"results"`
		}
		if err := r.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		all = append(all, page.Results...)
		if len(page.Results) < size || len(page.Results) == 0 {
			break
		}
		start += len(page.Results)
	}
	return all, nil
}

func campgroundFromSearchResult(res searchResult) Campground {
	cg := Campground{
		ID:             res.EntityID,
		Name:           res.Name,
		Description:    res.Description,
		State:          res.StateCode,
		City:           res.City,
		RecreationArea: res.ParentName,
	}
	if res.Latitude != "" {
		if v, err := strconv.ParseFloat(res.Latitude, 64); err == nil {
			cg.Latitude = &v
		}
	}
	if res.Longitude != "" {
		if v, err := strconv.ParseFloat(res.Longitude, 64); err == nil {
			cg.Longitude = &v
		}
	}
	for _, a := range res.Activities {
		if a.ActivityName != "" {
			cg.Activities = append(cg.Activities, a.ActivityName)
		}
	}
	return cg
}

// FindCampgrounds implements providers.Provider, returning every
// reservable campground in a state.
func (r *RecreationGov) FindCampgrounds(ctx context.Context, state string) ([]Campground, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	results, err := r.searchEntities(ctx, []string{
		"entity_type:campground",
		"state_code:" + state,
	}, "")
	if err != nil {
		return nil, err
	}
	var out []Campground
	for _, res := range results {
		if !res.Reservable {
			continue
		}
		out = append(out, campgroundFromSearchResult(res))
	}
	slog.Debug("fetched campgrounds for state", slog.String("state", state), slog.Int("count", len(out)))
	return out, nil
}

// FindCampgroundsByRecArea implements providers.Provider. All rec area
// IDs go into one filter so a batch costs a single paged search.
func (r *RecreationGov) FindCampgroundsByRecArea(ctx context.Context, recAreaIDs []string) ([]Campground, error) {
	if len(recAreaIDs) == 0 {
		return nil, nil
	}
	filter := "parent_asset_id:(" + strings.Join(recAreaIDs, " OR ") + ")"
	results, err := r.searchEntities(ctx, []string{"entity_type:campground", filter}, "")
	if err != nil {
		return nil, err
	}
	var out []Campground
	for _, res := range results {
		if !res.Reservable {
			continue
		}
		out = append(out, campgroundFromSearchResult(res))
	}
	return out, nil
}

// FindRecAreas implements providers.Provider.
func (r *RecreationGov) FindRecAreas(ctx context.Context, query, state string) ([]RecArea, error) {
	filters := []string{"entity_type:recarea"}
	if s := strings.ToUpper(strings.TrimSpace(state)); s != "" {
		filters = append(filters, "state_code:"+s)
	}
	results, err := r.searchEntities(ctx, filters, query)
	if err != nil {
		return nil, err
	}
	out := make([]RecArea, 0, len(results))
	for _, res := range results {
		out = append(out, RecArea{ID: res.EntityID, Name: res.Name})
	}
	return out, nil
}

// monthResp is the monthly availability payload, keyed by campsite id and date.
type monthResp struct {
	Campsites map[string]struct {
		Site           string            `json:"site"`
		Loop           string            `json:"loop"`
		CampsiteType   string            `json:"campsite_type"`
		Availabilities map[string]string `json:"availabilities"`
	} `json:"campsites"`
}

// SearchAvailability fetches the monthly availability pages covering a
// stay of the requested length and reports, per site, every check-in
// date in [start, end) where all nights of the stay are open.
func (r *RecreationGov) SearchAvailability(ctx context.Context, campgroundID string, start, end time.Time, nights int) ([]SiteBooking, error) {
	if nights < 1 {
		nights = 1
	}
	// A stay checking in on end-1d runs through end-1d+nights-1, so the
	// month fetch has to reach that far even past the window itself.
	lastNight := end.AddDate(0, 0, nights-2)
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	endMonth := time.Date(lastNight.Year(), lastNight.Month(), 1, 0, 0, 0, 0, time.UTC)

	titles := make(map[string]string)
	open := make(map[string]map[string]bool) // site id -> day -> available
	for !cur.After(endMonth) {
		u, err := url.Parse(fmt.Sprintf("%s/api/camps/availability/campground/%s/month", recGovBase, campgroundID))
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		q := u.Query()
		// Recreation.gov expects RFC3339 with milliseconds and Zulu time.
		q.Set("start_date", cur.UTC().Format("2006-01-02T15:04:05.000Z"))
		u.RawQuery = q.Encode()
		slog.Info("fetching availability", slog.String("url", u.String()))

		var parsed monthResp
		if err := r.getJSON(ctx, u.String(), &parsed); err != nil {
			return nil, fmt.Errorf("availability fetch failed: %w", err)
		}
		for siteID, data := range parsed.Campsites {
			title := strings.TrimSpace(data.Site)
			if title == "" {
				title = data.CampsiteType
			} else if data.Loop != "" {
				title = data.Loop + " " + title
			}
			if _, ok := titles[siteID]; !ok {
				titles[siteID] = title
			}
			days := open[siteID]
			if days == nil {
				days = make(map[string]bool)
				open[siteID] = days
			}
			for dateStr, status := range data.Availabilities {
				d, err := time.Parse(time.RFC3339, dateStr)
				if err != nil {
					slog.Error("bad date from rec.gov", slog.String("date", dateStr))
					continue
				}
				days[d.UTC().Format("2006-01-02")] = status == "Available"
			}
		}
		cur = cur.AddDate(0, 1, 0)
	}

	siteIDs := make([]string, 0, len(open))
	for id := range open {
		siteIDs = append(siteIDs, id)
	}
	sort.Strings(siteIDs)

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	var out []SiteBooking
	for _, siteID := range siteIDs {
		days := open[siteID]
		for d := startDay; d.Before(endDay); d = d.AddDate(0, 0, 1) {
			stayFits := true
			for i := 0; i < nights; i++ {
				if !days[d.AddDate(0, 0, i).Format("2006-01-02")] {
					stayFits = false
					break
				}
			}
			if !stayFits {
				continue
			}
			out = append(out, SiteBooking{
				SiteID:      siteID,
				SiteName:    titles[siteID],
				BookingDate: d.Format("2006-01-02"),
				BookingURL:  r.CampsiteURL(siteID),
				Nights:      nights,
			})
		}
	}
	return out, nil
}

// clipBody returns a short string version of a response body for error messages.
// It limits to a reasonable size to avoid logging huge payloads.
func clipBody(b []byte) string {
	const max = 2048
	if len(b) == 0 {
		return ""
	}
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
