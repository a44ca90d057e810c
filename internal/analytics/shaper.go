package analytics

import (
	"math"
	"strings"

	"github.com/gamedash/api/internal/normalize"
	"github.com/gamedash/api/internal/pipeline"
)

// UnknownLabel substitutes for group labels that come back blank.
const UnknownLabel = "Unknown"

// Output shapes. Key sets are fixed per operation and fully populated even
// on the empty or error path; the presentation layer never sees a partial
// mapping.

// DimensionCount is one bucket of a count-by-category query.
type DimensionCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DimensionRating is one bucket of an average-rating query.
type DimensionRating struct {
	Label     string  `json:"label"`
	AvgRating float64 `json:"avg_rating"`
}

// RatedGame is one entry of a top-rated ranking.
type RatedGame struct {
	Title    string  `json:"title"`
	Rating   float64 `json:"rating"`
	Category string  `json:"category"`
}

// YearCount is one point of the releases-per-year series.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// PlatformSales aggregates sales for one platform.
type PlatformSales struct {
	Platform string  `json:"platform"`
	Units    int     `json:"units"`
	Revenue  float64 `json:"revenue"`
}

// RegionSales aggregates sales for one region.
type RegionSales struct {
	Region  string  `json:"region"`
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
}

// TopSeller is one entry of the best-selling ranking.
type TopSeller struct {
	Title   string  `json:"title"`
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
}

// SalesSummary is the composite KPI payload over the sales collection.
type SalesSummary struct {
	TotalSales   int             `json:"total_sales"`
	TotalUnits   int             `json:"total_units"`
	TotalRevenue float64         `json:"total_revenue"`
	AvgPrice     float64         `json:"avg_price"`
	Platforms    []PlatformSales `json:"platforms"`
	Regions      []RegionSales   `json:"regions"`
	TopSellers   []TopSeller     `json:"top_sellers"`
}

// EmptySalesSummary returns the declared zero payload with non-nil lists.
func EmptySalesSummary() SalesSummary {
	return SalesSummary{
		Platforms:  []PlatformSales{},
		Regions:    []RegionSales{},
		TopSellers: []TopSeller{},
	}
}

// DashboardSummary is the composite payload the overview endpoint renders.
type DashboardSummary struct {
	TotalGames int64            `json:"total_games"`
	Genres     []DimensionCount `json:"genres"`
	Platforms  []DimensionCount `json:"platforms"`
	Years      []YearCount      `json:"years"`
	TopRated   []RatedGame      `json:"top_rated"`
}

// EmptyDashboardSummary returns the declared zero payload with non-nil lists.
func EmptyDashboardSummary() DashboardSummary {
	return DashboardSummary{
		Genres:    []DimensionCount{},
		Platforms: []DimensionCount{},
		Years:     []YearCount{},
		TopRated:  []RatedGame{},
	}
}

// round1 is the declared precision for every rating and percentage surface.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 is the declared precision for money.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// asFloat coerces an aggregation value defensively; anything non-numeric
// counts as zero rather than failing the shape.
func asFloat(value any) float64 {
	f, ok := normalize.ToFloat(value)
	if !ok {
		return 0
	}
	return f
}

func asInt(value any) int {
	return int(math.Round(asFloat(value)))
}

func asString(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func labelOrUnknown(value any) string {
	if s := asString(value); s != "" {
		return s
	}
	return UnknownLabel
}

func shapeDimensionCounts(rows []pipeline.Row, key string) []DimensionCount {
	out := make([]DimensionCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, DimensionCount{
			Label: labelOrUnknown(row[key]),
			Count: asInt(row[metricCount]),
		})
	}
	return out
}

func shapeDimensionRatings(rows []pipeline.Row, key string) []DimensionRating {
	out := make([]DimensionRating, 0, len(rows))
	for _, row := range rows {
		out = append(out, DimensionRating{
			Label:     labelOrUnknown(row[key]),
			AvgRating: round1(asFloat(row[metricAvgRating])),
		})
	}
	return out
}

func shapeRatedGames(rows []pipeline.Row) []RatedGame {
	out := make([]RatedGame, 0, len(rows))
	for _, row := range rows {
		out = append(out, RatedGame{
			Title:    labelOrUnknown(row[pipeline.ColTitle]),
			Rating:   round1(asFloat(row[pipeline.ColRating])),
			Category: labelOrUnknown(row[pipeline.ColCategory]),
		})
	}
	return out
}

func shapeYearCounts(rows []pipeline.Row) []YearCount {
	out := make([]YearCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, YearCount{
			Year:  asInt(row[pipeline.ColReleaseYear]),
			Count: asInt(row[metricCount]),
		})
	}
	return out
}
