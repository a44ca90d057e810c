// Package analytics is the query facade of the dashboard backend: one typed
// operation per analytical question, each building its aggregation pipeline
// explicitly and each independently resilient to missing or malformed
// source fields. Operations never return errors to the caller; a failed
// query logs its cause and degrades to the operation's declared empty
// default.
package analytics

import (
	"context"
	"log"
	"sync"

	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/pipeline"
	"github.com/gamedash/api/internal/repository"
)

// Metric column names shared between pipelines and shaping.
const (
	metricCount     = "count"
	metricAvgRating = "avg_rating"
	metricUnits     = "units"
	metricRevenue   = "revenue"
	metricAvgPrice  = "avg_price"
)

const defaultTopN = 10

// Store is the slice of the document store the facade consumes.
type Store interface {
	Aggregate(ctx context.Context, p *pipeline.Pipeline) ([]pipeline.Row, error)
}

// Dimension selects the grouping key of a category query.
type Dimension string

const (
	DimensionGenre     Dimension = "genre"
	DimensionPlatform  Dimension = "platform"
	DimensionPublisher Dimension = "publisher"
	DimensionDeveloper Dimension = "developer"
)

// Service answers the dashboard's analytical questions over the games and
// game_sales collections.
//
// Year-range enforcement is declared per operation, not uniformly:
// TotalCount, TopRated, CountBy and CountByYear apply it; AverageRatingBy
// deliberately ignores it so rating comparisons stay catalog-wide. Each
// policy is covered by a test.
type Service struct {
	games Store
	sales Store
}

// NewService wires the facade to its collections.
func NewService(games, sales Store) *Service {
	return &Service{games: games, sales: sales}
}

// TotalCount returns how many records pass the base predicate plus the
// caller's filters. Zero on error.
func (s *Service) TotalCount(ctx context.Context, f domain.GameFilter) int64 {
	f = f.Normalized()
	p := pipeline.New(repository.GamesCollection).
		Derive(pipeline.GameFields()...).
		Match(withFilters(pipeline.BasePredicates(), pipeline.GamePredicates(f, true))...).
		Group("", pipeline.Count(metricCount))

	rows, err := s.games.Aggregate(ctx, p)
	if err != nil {
		log.Printf("[analytics] total count failed: %v", err)
		return 0
	}
	if len(rows) == 0 {
		return 0
	}
	return int64(asInt(rows[0][metricCount]))
}

// TopRated ranks titles by rating descending; ties keep input order. The
// category column carries the raw delimited genre field.
func (s *Service) TopRated(ctx context.Context, f domain.GameFilter, limit int) []RatedGame {
	f = f.Normalized()
	if limit <= 0 {
		limit = defaultTopN
	}
	p := pipeline.New(repository.GamesCollection).
		Derive(pipeline.GameFields()...).
		Match(withFilters(pipeline.RatingPredicates(), pipeline.GamePredicates(f, true))...).
		Sort(pipeline.ColRating, true).
		Limit(limit)

	rows, err := s.games.Aggregate(ctx, p)
	if err != nil {
		log.Printf("[analytics] top rated failed: %v", err)
		return []RatedGame{}
	}
	return shapeRatedGames(rows)
}

// CountBy buckets records by genre, platform or publisher. Multi-value
// dimensions are exploded first, so one title on two platforms counts in
// both buckets and the column totals may exceed TotalCount by design.
// Groups whose key never resolved are dropped after grouping.
func (s *Service) CountBy(ctx context.Context, dim Dimension, f domain.GameFilter) []DimensionCount {
	f = f.Normalized()
	p := pipeline.New(repository.GamesCollection).
		Derive(pipeline.GameFields()...).
		Match(withFilters(pipeline.BasePredicates(), pipeline.GamePredicates(f, true))...)

	var key string
	switch dim {
	case DimensionGenre:
		key = "genre"
		p = p.Unwind(pipeline.ColGenreSet, key)
	case DimensionPlatform:
		key = "platform"
		p = p.Unwind(pipeline.ColPlatformSet, key)
	case DimensionPublisher:
		key = pipeline.ColPublisher
	default:
		log.Printf("[analytics] count by: unsupported dimension %q", dim)
		return []DimensionCount{}
	}

	p = p.Group(key, pipeline.Count(metricCount)).
		DropNullKey(key).
		Sort(metricCount, true)

	rows, err := s.games.Aggregate(ctx, p)
	if err != nil {
		log.Printf("[analytics] count by %s failed: %v", dim, err)
		return []DimensionCount{}
	}
	return shapeDimensionCounts(rows, key)
}

// AverageRatingBy averages ratings per platform or developer. Rows whose
// rating failed numeric coercion are excluded before averaging by the base
// predicate; unresolved dimension keys are dropped after grouping. The
// caller's year range is intentionally not applied here.
func (s *Service) AverageRatingBy(ctx context.Context, dim Dimension, f domain.GameFilter) []DimensionRating {
	f = f.Normalized()
	p := pipeline.New(repository.GamesCollection).
		Derive(pipeline.GameFields()...).
		Match(withFilters(pipeline.RatingPredicates(), pipeline.GamePredicates(f, false))...)

	var key string
	switch dim {
	case DimensionPlatform:
		key = "platform"
		p = p.Unwind(pipeline.ColPlatformSet, key)
	case DimensionDeveloper:
		key = pipeline.ColDeveloper
	default:
		log.Printf("[analytics] average rating by: unsupported dimension %q", dim)
		return []DimensionRating{}
	}

	p = p.Group(key, pipeline.Avg(metricAvgRating, pipeline.ColRating)).
		DropNullKey(key).
		Sort(metricAvgRating, true)

	rows, err := s.games.Aggregate(ctx, p)
	if err != nil {
		log.Printf("[analytics] average rating by %s failed: %v", dim, err)
		return []DimensionRating{}
	}
	return shapeDimensionRatings(rows, key)
}

// CountByYear returns releases per year ascending. Records whose date never
// parsed carry a null year and are excluded here, though they still count
// in category queries.
func (s *Service) CountByYear(ctx context.Context, f domain.GameFilter) []YearCount {
	f = f.Normalized()
	p := pipeline.New(repository.GamesCollection).
		Derive(pipeline.GameFields()...).
		Match(withFilters(pipeline.BasePredicates(), pipeline.GamePredicates(f, true))...).
		Group(pipeline.ColReleaseYear, pipeline.Count(metricCount)).
		DropNullKey(pipeline.ColReleaseYear).
		Sort(pipeline.ColReleaseYear, false)

	rows, err := s.games.Aggregate(ctx, p)
	if err != nil {
		log.Printf("[analytics] count by year failed: %v", err)
		return []YearCount{}
	}
	return shapeYearCounts(rows)
}

// SalesKPIs computes the composite sales summary: totals, per-platform and
// per-region breakdowns, and top sellers. The four sub-queries are
// independent reads of the same snapshot and run concurrently; a failed
// sub-query zeroes only its own slice of the payload.
func (s *Service) SalesKPIs(ctx context.Context, f domain.SalesFilter) SalesSummary {
	f = f.Normalized()
	summary := EmptySalesSummary()

	base := func() *pipeline.Pipeline {
		return pipeline.New(repository.SalesCollection).
			Derive(pipeline.SalesFields()...).
			Match(pipeline.SalesPredicates(f)...)
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		p := base().Group("",
			pipeline.Count(metricCount),
			pipeline.Sum(metricUnits, pipeline.ColSalesUnits),
			pipeline.Sum(metricRevenue, pipeline.ColSalesRevenue),
			pipeline.Avg(metricAvgPrice, pipeline.ColSalesPrice))
		rows, err := s.sales.Aggregate(ctx, p)
		if err != nil {
			log.Printf("[analytics] sales totals failed: %v", err)
			return
		}
		if len(rows) == 0 {
			return
		}
		summary.TotalSales = asInt(rows[0][metricCount])
		summary.TotalUnits = asInt(rows[0][metricUnits])
		summary.TotalRevenue = round2(asFloat(rows[0][metricRevenue]))
		summary.AvgPrice = round2(asFloat(rows[0][metricAvgPrice]))
	}()

	go func() {
		defer wg.Done()
		p := base().Group(pipeline.ColSalesPlatform,
			pipeline.Sum(metricUnits, pipeline.ColSalesUnits),
			pipeline.Sum(metricRevenue, pipeline.ColSalesRevenue)).
			DropNullKey(pipeline.ColSalesPlatform).
			Sort(metricRevenue, true)
		rows, err := s.sales.Aggregate(ctx, p)
		if err != nil {
			log.Printf("[analytics] sales by platform failed: %v", err)
			return
		}
		for _, row := range rows {
			summary.Platforms = append(summary.Platforms, PlatformSales{
				Platform: labelOrUnknown(row[pipeline.ColSalesPlatform]),
				Units:    asInt(row[metricUnits]),
				Revenue:  round2(asFloat(row[metricRevenue])),
			})
		}
	}()

	go func() {
		defer wg.Done()
		p := base().Group(pipeline.ColSalesRegion,
			pipeline.Sum(metricUnits, pipeline.ColSalesUnits),
			pipeline.Sum(metricRevenue, pipeline.ColSalesRevenue)).
			DropNullKey(pipeline.ColSalesRegion).
			Sort(metricRevenue, true)
		rows, err := s.sales.Aggregate(ctx, p)
		if err != nil {
			log.Printf("[analytics] sales by region failed: %v", err)
			return
		}
		for _, row := range rows {
			summary.Regions = append(summary.Regions, RegionSales{
				Region:  labelOrUnknown(row[pipeline.ColSalesRegion]),
				Units:   asInt(row[metricUnits]),
				Revenue: round2(asFloat(row[metricRevenue])),
			})
		}
	}()

	go func() {
		defer wg.Done()
		p := base().Group(pipeline.ColSalesTitle,
			pipeline.Sum(metricUnits, pipeline.ColSalesUnits),
			pipeline.Sum(metricRevenue, pipeline.ColSalesRevenue)).
			DropNullKey(pipeline.ColSalesTitle).
			Sort(metricUnits, true).
			Limit(defaultTopN)
		rows, err := s.sales.Aggregate(ctx, p)
		if err != nil {
			log.Printf("[analytics] top sellers failed: %v", err)
			return
		}
		for _, row := range rows {
			summary.TopSellers = append(summary.TopSellers, TopSeller{
				Title:   labelOrUnknown(row[pipeline.ColSalesTitle]),
				Units:   asInt(row[metricUnits]),
				Revenue: round2(asFloat(row[metricRevenue])),
			})
		}
	}()

	wg.Wait()
	return summary
}

// Overview assembles the dashboard composite. The member operations share
// no state and read an immutable snapshot, so they run concurrently; each
// already degrades to its own empty default on failure.
func (s *Service) Overview(ctx context.Context, f domain.GameFilter) DashboardSummary {
	summary := EmptyDashboardSummary()

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); summary.TotalGames = s.TotalCount(ctx, f) }()
	go func() { defer wg.Done(); summary.Genres = s.CountBy(ctx, DimensionGenre, f) }()
	go func() { defer wg.Done(); summary.Platforms = s.CountBy(ctx, DimensionPlatform, f) }()
	go func() { defer wg.Done(); summary.Years = s.CountByYear(ctx, f) }()
	go func() { defer wg.Done(); summary.TopRated = s.TopRated(ctx, f, defaultTopN) }()
	wg.Wait()

	return summary
}

func withFilters(base, extra []pipeline.Predicate) []pipeline.Predicate {
	return append(append([]pipeline.Predicate{}, base...), extra...)
}
