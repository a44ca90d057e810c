package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// GameFilterFromValues decodes a catalog filter from URL query parameters.
// Absent or unparsable parameters leave their fields at the zero value,
// which the queries treat as unrestricted.
func GameFilterFromValues(values url.Values) GameFilter {
	return GameFilter{
		Genres:    splitParams(values["genre"]),
		Platforms: splitParams(values["platform"]),
		YearStart: intParam(values.Get("year_start")),
		YearEnd:   intParam(values.Get("year_end")),
		MinRating: floatParam(values.Get("min_rating")),
		MinVotes:  intParam(values.Get("min_votes")),
		Search:    strings.TrimSpace(values.Get("search")),
	}
}

// SalesFilterFromValues decodes a sales filter from URL query parameters.
func SalesFilterFromValues(values url.Values) SalesFilter {
	return SalesFilter{
		Titles:    splitParams(values["title"]),
		Platforms: splitParams(values["platform"]),
		Regions:   splitParams(values["region"]),
		DateStart: strings.TrimSpace(values.Get("date_start")),
		DateEnd:   strings.TrimSpace(values.Get("date_end")),
		PriceMin:  floatParam(values.Get("price_min")),
		PriceMax:  floatParam(values.Get("price_max")),
	}
}

// splitParams accepts repeated parameters and comma separated lists alike.
func splitParams(raw []string) []string {
	var out []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func floatParam(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}
