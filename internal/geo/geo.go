// Package geo resolves free-text locations to two-letter state codes.
//
// All tables are ordered slices rather than maps: partial-match scans
// walk entries in definition order and the first hit wins, so resolution
// is deterministic across runs.
package geo

import "strings"

type mapping struct {
	Name  string
	State string
}

var stateTable = []mapping{
	{"ALABAMA", "AL"}, {"ALASKA", "AK"}, {"ARIZONA", "AZ"}, {"ARKANSAS", "AR"}, {"CALIFORNIA", "CA"},
	{"COLORADO", "CO"}, {"CONNECTICUT", "CT"}, {"DELAWARE", "DE"}, {"FLORIDA", "FL"}, {"GEORGIA", "GA"},
	{"HAWAII", "HI"}, {"IDAHO", "ID"}, {"ILLINOIS", "IL"}, {"INDIANA", "IN"}, {"IOWA", "IA"},
	{"KANSAS", "KS"}, {"KENTUCKY", "KY"}, {"LOUISIANA", "LA"}, {"MAINE", "ME"}, {"MARYLAND", "MD"},
	{"MASSACHUSETTS", "MA"}, {"MICHIGAN", "MI"}, {"MINNESOTA", "MN"}, {"MISSISSIPPI", "MS"}, {"MISSOURI", "MO"},
	{"MONTANA", "MT"}, {"NEBRASKA", "NE"}, {"NEVADA", "NV"}, {"NEW HAMPSHIRE", "NH"}, {"NEW JERSEY", "NJ"},
	{"NEW MEXICO", "NM"}, {"NEW YORK", "NY"}, {"NORTH CAROLINA", "NC"}, {"NORTH DAKOTA", "ND"}, {"OHIO", "OH"},
	{"OKLAHOMA", "OK"}, {"OREGON", "OR"}, {"PENNSYLVANIA", "PA"}, {"RHODE ISLAND", "RI"}, {"SOUTH CAROLINA", "SC"},
	{"SOUTH DAKOTA", "SD"}, {"TENNESSEE", "TN"}, {"TEXAS", "TX"}, {"UTAH", "UT"}, {"VERMONT", "VT"},
	{"VIRGINIA", "VA"}, {"WASHINGTON", "WA"}, {"WEST VIRGINIA", "WV"}, {"WISCONSIN", "WI"}, {"WYOMING", "WY"},
}

var parkTable = []mapping{
	{"YELLOWSTONE NATIONAL PARK", "WY"},
	{"YOSEMITE NATIONAL PARK", "CA"},
	{"GRAND CANYON NATIONAL PARK", "AZ"},
	{"ZION NATIONAL PARK", "UT"},
	{"GREAT SMOKY MOUNTAINS NATIONAL PARK", "TN"},
	{"ROCKY MOUNTAIN NATIONAL PARK", "CO"},
	{"ACADIA NATIONAL PARK", "ME"},
	{"OLYMPIC NATIONAL PARK", "WA"},
	{"GLACIER NATIONAL PARK", "MT"},
	{"JOSHUA TREE NATIONAL PARK", "CA"},
}

var recAreaTable = []mapping{
	{"LAKE TAHOE", "CA"},
	{"LAKE POWELL", "UT"},
	{"LAKE MEAD", "NV"},
	{"SHASTA LAKE", "CA"},
}

// FallbackStates is the breadth-search order used when no state
// resolves: most-visited park states first, so obscure queries still
// stand a good chance of a non-empty first page.
var FallbackStates = []string{
	"CA", "OR", "WA", "CO", "UT", "AZ", "NY", "TX", "FL", "MT",
	"WY", "ID", "NV", "NM", "NC", "TN", "GA", "VA", "PA", "MI",
	"MN", "WI", "MO", "AR", "SD", "ND", "KY", "OK", "AL", "SC",
	"LA", "MD", "MA", "NH", "VT", "ME", "AK", "HI",
}

// Resolve maps a free-text location (and optional explicit state) to a
// two-letter state code. Priority: explicit state, exact state
// name/abbreviation, exact park name, exact rec-area name, then partial
// scans over the same tables in the same order. Abbreviations only
// match as whole words in partial scans; a raw substring check would
// resolve "YELLOWSTONE" to NE before the park table is ever consulted.
func Resolve(location, explicitState string) (string, bool) {
	if s := strings.ToUpper(strings.TrimSpace(explicitState)); s != "" {
		// Accept either form, so "california" scopes like "CA" does.
		// Anything else is not a state and falls through to the
		// location text.
		for _, m := range stateTable {
			if m.State == s || m.Name == s {
				return m.State, true
			}
		}
	}
	q := strings.ToUpper(strings.TrimSpace(location))
	if q == "" {
		return "", false
	}

	// exact matches
	for _, m := range stateTable {
		if m.Name == q || m.State == q {
			return m.State, true
		}
	}
	for _, m := range parkTable {
		if m.Name == q {
			return m.State, true
		}
	}
	for _, m := range recAreaTable {
		if m.Name == q {
			return m.State, true
		}
	}

	// partial matches, first defined entry wins
	for _, m := range stateTable {
		if containsEither(q, m.Name) || hasWord(q, m.State) {
			return m.State, true
		}
	}
	for _, m := range parkTable {
		if containsEither(q, m.Name) {
			return m.State, true
		}
	}
	for _, m := range recAreaTable {
		if containsEither(q, m.Name) {
			return m.State, true
		}
	}
	return "", false
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func hasWord(q, w string) bool {
	for _, f := range strings.Fields(q) {
		if f == w {
			return true
		}
	}
	return false
}
