package domain

import "strings"

// GameFilter is the set of optional restrictions a caller applies to a
// catalog query. The zero value means "unrestricted": an absent component
// never narrows the result set, and an inverted range is normalized rather
// than matching nothing.
type GameFilter struct {
	Genres    []string
	Platforms []string
	YearStart int
	YearEnd   int
	MinRating float64
	MinVotes  int
	Search    string
}

// HasYearRange reports whether the caller restricted the release year.
func (f GameFilter) HasYearRange() bool {
	return f.YearStart != 0 || f.YearEnd != 0
}

// Normalized returns a copy with inverted ranges swapped to ascending order,
// blank filter values dropped and surrounding whitespace trimmed. Callers
// build predicates from the normalized form only.
func (f GameFilter) Normalized() GameFilter {
	out := f
	out.Genres = cleanValues(f.Genres)
	out.Platforms = cleanValues(f.Platforms)
	out.Search = strings.TrimSpace(f.Search)
	if f.YearStart != 0 && f.YearEnd != 0 && f.YearStart > f.YearEnd {
		out.YearStart, out.YearEnd = f.YearEnd, f.YearStart
	}
	return out
}

// SalesFilter restricts sales KPI queries. Dates are ISO YYYY-MM-DD strings,
// which order lexically.
type SalesFilter struct {
	Titles    []string
	Platforms []string
	Regions   []string
	DateStart string
	DateEnd   string
	PriceMin  float64
	PriceMax  float64
}

// Normalized returns a copy with inverted date and price ranges swapped and
// blank filter values dropped.
func (f SalesFilter) Normalized() SalesFilter {
	out := f
	out.Titles = cleanValues(f.Titles)
	out.Platforms = cleanValues(f.Platforms)
	out.Regions = cleanValues(f.Regions)
	out.DateStart = strings.TrimSpace(f.DateStart)
	out.DateEnd = strings.TrimSpace(f.DateEnd)
	if out.DateStart != "" && out.DateEnd != "" && out.DateStart > out.DateEnd {
		out.DateStart, out.DateEnd = out.DateEnd, out.DateStart
	}
	if f.PriceMin != 0 && f.PriceMax != 0 && f.PriceMin > f.PriceMax {
		out.PriceMin, out.PriceMax = f.PriceMax, f.PriceMin
	}
	return out
}

func cleanValues(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
