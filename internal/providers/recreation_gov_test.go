package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

// rewriteTransport redirects outgoing requests to a local test server.
type rewriteTransport struct{ target *url.URL }

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r2 := req.Clone(req.Context())
	r2.URL.Scheme = rt.target.Scheme
	r2.URL.Host = rt.target.Host
	r2.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r2)
}

func newRecreationGovForTest(t *testing.T, srv *httptest.Server) *RecreationGov {
	t.Helper()
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	p := NewRecreationGov()
	p.client.SetTransport(&rewriteTransport{target: target})
	return p
}

type monthSite struct {
	Site           string            `json:"site"`
	Loop           string            `json:"loop"`
	CampsiteType   string            `json:"campsite_type"`
	Availabilities map[string]string `json:"availabilities"`
}

func writeMonth(t *testing.T, w http.ResponseWriter, sites map[string]monthSite) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]any{"campsites": sites}); err != nil {
		t.Fatalf("encode month payload: %v", err)
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSearchAvailability_RequiresFullStay(t *testing.T) {
	// s1 has only the first night open, s2 has the whole window.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMonth(t, w, map[string]monthSite{
			"s1": {Site: "001", Loop: "A", Availabilities: map[string]string{
				"2025-08-01T00:00:00Z": "Available",
				"2025-08-02T00:00:00Z": "Reserved",
				"2025-08-03T00:00:00Z": "Reserved",
			}},
			"s2": {Site: "002", Availabilities: map[string]string{
				"2025-08-01T00:00:00Z": "Available",
				"2025-08-02T00:00:00Z": "Available",
				"2025-08-03T00:00:00Z": "Available",
			}},
		})
	}))
	defer srv.Close()
	p := newRecreationGovForTest(t, srv)

	out, err := p.SearchAvailability(context.Background(), "232447", day("2025-08-01"), day("2025-08-03"), 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// A two-night stay fits s2 checking in on the 1st or the 2nd; s1
	// can't host either one.
	if len(out) != 2 {
		t.Fatalf("want 2 bookings, got %d: %+v", len(out), out)
	}
	for i, wantDate := range []string{"2025-08-01", "2025-08-02"} {
		b := out[i]
		if b.SiteID != "s2" || b.BookingDate != wantDate {
			t.Fatalf("booking %d: got site %q date %q", i, b.SiteID, b.BookingDate)
		}
		if b.Nights != 2 {
			t.Fatalf("booking %d: nights = %d", i, b.Nights)
		}
		if b.BookingURL != "https://www.recreation.gov/camping/campsites/s2" {
			t.Fatalf("booking %d: url = %q", i, b.BookingURL)
		}
	}
}

func TestSearchAvailability_FetchesThroughStayEnd(t *testing.T) {
	// Checking in on Aug 31 for two nights sleeps into September, so
	// both month pages have to be fetched.
	var startDates []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd := r.URL.Query().Get("start_date")
		startDates = append(startDates, sd)
		switch sd {
		case "2025-08-01T00:00:00.000Z":
			writeMonth(t, w, map[string]monthSite{
				"s1": {Site: "001", Availabilities: map[string]string{
					"2025-08-31T00:00:00Z": "Available",
				}},
			})
		case "2025-09-01T00:00:00.000Z":
			writeMonth(t, w, map[string]monthSite{
				"s1": {Site: "001", Availabilities: map[string]string{
					"2025-09-01T00:00:00Z": "Available",
				}},
			})
		default:
			t.Errorf("unexpected start_date %q", sd)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	p := newRecreationGovForTest(t, srv)

	out, err := p.SearchAvailability(context.Background(), "232447", day("2025-08-31"), day("2025-09-01"), 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(startDates) != 2 {
		t.Fatalf("want 2 month fetches, got %v", startDates)
	}
	if len(out) != 1 || out[0].BookingDate != "2025-08-31" {
		t.Fatalf("want one booking on 2025-08-31, got %+v", out)
	}
}

func TestSearchAvailability_ClipsToWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMonth(t, w, map[string]monthSite{
			"s1": {Site: "001", Availabilities: map[string]string{
				"2025-08-05T00:00:00Z": "Available",
				"2025-08-10T00:00:00Z": "Available",
				"2025-08-11T00:00:00Z": "Reserved",
				"2025-08-12T00:00:00Z": "Available",
			}},
		})
	}))
	defer srv.Close()
	p := newRecreationGovForTest(t, srv)

	out, err := p.SearchAvailability(context.Background(), "232447", day("2025-08-10"), day("2025-08-12"), 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// Aug 5 is before the window, Aug 12 is the exclusive end.
	if len(out) != 1 || out[0].BookingDate != "2025-08-10" {
		t.Fatalf("want only 2025-08-10, got %+v", out)
	}
}

func TestFindCampgrounds_PaginatesAndFilters(t *testing.T) {
	// Two search pages: a full one of 100 and a short one of 40. One
	// result per page is not reservable and must be dropped.
	var starts []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if got := q["fq"]; len(got) != 2 || got[0] != "entity_type:campground" || got[1] != "state_code:WY" {
			t.Errorf("fq filters: %v", got)
		}
		start, _ := strconv.Atoi(q.Get("start"))
		starts = append(starts, start)

		count := 100
		if start == 100 {
			count = 40
		}
		results := make([]map[string]any, 0, count)
		for i := 0; i < count; i++ {
			id := start + i + 1
			res := map[string]any{
				"entity_id":  fmt.Sprintf("cg-%d", id),
				"name":       fmt.Sprintf("Campground %d", id),
				"state_code": "WY",
				"reservable": id != 1 && id != 101,
			}
			if id == 2 {
				res["latitude"] = "44.5"
				res["longitude"] = "-110.3"
			}
			results = append(results, res)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer srv.Close()
	p := newRecreationGovForTest(t, srv)

	out, err := p.FindCampgrounds(context.Background(), "wy")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(starts) != 2 || starts[0] != 0 || starts[1] != 100 {
		t.Fatalf("page starts: %v", starts)
	}
	if len(out) != 138 {
		t.Fatalf("want 138 reservable campgrounds, got %d", len(out))
	}
	for _, cg := range out {
		if cg.ID == "cg-1" || cg.ID == "cg-101" {
			t.Fatalf("non-reservable %s leaked through", cg.ID)
		}
		if cg.ID == "cg-2" {
			if cg.Latitude == nil || *cg.Latitude != 44.5 {
				t.Fatalf("latitude not parsed: %+v", cg.Latitude)
			}
			if cg.Longitude == nil || *cg.Longitude != -110.3 {
				t.Fatalf("longitude not parsed: %+v", cg.Longitude)
			}
		}
	}
}

func TestSearchAvailability_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	p := newRecreationGovForTest(t, srv)

	if _, err := p.SearchAvailability(context.Background(), "232447", day("2025-08-01"), day("2025-08-02"), 1); err == nil {
		t.Fatal("expected an error for a 429 response")
	}
}
