package analytics

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/pipeline"
)

// mockStore evaluates pipelines in memory over canned documents, so the
// facade tests exercise the same stage semantics the SQL path compiles.
type mockStore struct {
	docs []domain.Document
	err  error
}

func (m *mockStore) Aggregate(_ context.Context, p *pipeline.Pipeline) ([]pipeline.Row, error) {
	if m.err != nil {
		return nil, m.err
	}
	return p.Run(pipeline.DocRows(m.docs)), nil
}

func catalogFixture() []domain.Document {
	return []domain.Document{
		{
			"title":        "Game A",
			"rating":       8.77,
			"votes":        1200.0,
			"genre":        "Action, Adventure",
			"platform":     "PC, PS4",
			"publisher":    "Acme",
			"developer":    "Acme Studio",
			"release_date": "08/25/2014",
		},
		{
			"title":        "Game B",
			"rating":       "9.1",
			"votes":        300.0,
			"genre":        "Action",
			"platform":     "PC",
			"publisher":    "Bravo",
			"developer":    "Bravo Works",
			"release_date": "01/15/2016",
		},
		{
			"title":        "Game C",
			"rating":       "N/A",
			"genre":        "Strategy",
			"platform":     "PC",
			"publisher":    "Acme",
			"release_date": "not a date",
		},
		{
			// No title: excluded from every query by the base predicate.
			"rating": 9.9,
			"genre":  "Action",
		},
	}
}

func newTestService(docs []domain.Document) (*Service, *mockStore, *mockStore) {
	games := &mockStore{docs: docs}
	sales := &mockStore{}
	return NewService(games, sales), games, sales
}

func TestTotalCount(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.TotalCount(context.Background(), domain.GameFilter{})
	if got != 3 {
		t.Fatalf("expected 3 titled records, got %d", got)
	}
}

func TestTotalCountEnforcesYearRange(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.TotalCount(context.Background(), domain.GameFilter{YearStart: 2015, YearEnd: 2020})
	// Game B only; Game C's unparsable date excludes it from year filters.
	if got != 1 {
		t.Fatalf("expected 1 record in 2015..2020, got %d", got)
	}
}

func TestTotalCountInvertedRangeEquivalent(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	asc := svc.TotalCount(context.Background(), domain.GameFilter{YearStart: 2014, YearEnd: 2016})
	inv := svc.TotalCount(context.Background(), domain.GameFilter{YearStart: 2016, YearEnd: 2014})
	if asc != inv {
		t.Fatalf("inverted range must behave like ascending: %d != %d", asc, inv)
	}
	if asc != 2 {
		t.Fatalf("expected 2 records in 2014..2016, got %d", asc)
	}
}

func TestCountByGenreExplodesMultiValues(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.CountBy(context.Background(), DimensionGenre, domain.GameFilter{})

	counts := map[string]int{}
	total := 0
	for _, c := range got {
		counts[c.Label] = c.Count
		total += c.Count
	}
	if counts["Action"] != 2 || counts["Adventure"] != 1 || counts["Strategy"] != 1 {
		t.Fatalf("unexpected genre counts %v", counts)
	}
	// Game A carries two genres, so the column total exceeds TotalCount.
	if total != 4 {
		t.Fatalf("expected exploded total 4, got %d", total)
	}
	if got[0].Label != "Action" {
		t.Fatalf("buckets should be sorted by count descending, got %v first", got[0])
	}
}

func TestCountByPublisherDropsNullKeys(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.CountBy(context.Background(), DimensionPublisher, domain.GameFilter{})

	for _, c := range got {
		if c.Label == "" || c.Label == UnknownLabel {
			t.Fatalf("unresolved publishers must be dropped after grouping, got %v", got)
		}
	}
	counts := map[string]int{}
	for _, c := range got {
		counts[c.Label] = c.Count
	}
	if counts["Acme"] != 2 || counts["Bravo"] != 1 {
		t.Fatalf("unexpected publisher counts %v", counts)
	}
}

func TestCountByUnsupportedDimension(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.CountBy(context.Background(), Dimension("bogus"), domain.GameFilter{})
	if got == nil || len(got) != 0 {
		t.Fatalf("unsupported dimension should yield the empty default, got %v", got)
	}
}

func TestTopRatedRoundsAndRanks(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.TopRated(context.Background(), domain.GameFilter{}, 5)

	// Game C (unparsable rating) and the untitled record are excluded.
	if len(got) != 2 {
		t.Fatalf("expected 2 rated games, got %d", len(got))
	}
	if got[0].Title != "Game B" || got[0].Rating != 9.1 {
		t.Fatalf("unexpected leader %+v", got[0])
	}
	if got[1].Title != "Game A" || got[1].Rating != 8.8 {
		t.Fatalf("8.77 must round to 8.8, got %+v", got[1])
	}
	if got[1].Category != "Action, Adventure" {
		t.Fatalf("category carries the raw genre field, got %q", got[1].Category)
	}
}

func TestTopRatedStableTieBreak(t *testing.T) {
	docs := []domain.Document{
		{"title": "First In", "rating": 8.0},
		{"title": "Second In", "rating": 8.0},
	}
	svc, _, _ := newTestService(docs)
	got := svc.TopRated(context.Background(), domain.GameFilter{}, 5)
	if len(got) != 2 || got[0].Title != "First In" || got[1].Title != "Second In" {
		t.Fatalf("ties must keep input order, got %v", got)
	}
}

func TestCountByYearExcludesBadDates(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.CountByYear(context.Background(), domain.GameFilter{})

	want := []YearCount{{Year: 2014, Count: 1}, {Year: 2016, Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v ascending with bad dates dropped, got %v", want, got)
	}
}

func TestAverageRatingByIgnoresYearRange(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())

	unrestricted := svc.AverageRatingBy(context.Background(), DimensionDeveloper, domain.GameFilter{})
	windowed := svc.AverageRatingBy(context.Background(), DimensionDeveloper,
		domain.GameFilter{YearStart: 2016, YearEnd: 2016})

	// The year range deliberately does not apply: averages stay catalog-wide.
	if !reflect.DeepEqual(unrestricted, windowed) {
		t.Fatalf("year range must not affect averages: %v vs %v", unrestricted, windowed)
	}

	ratings := map[string]float64{}
	for _, r := range unrestricted {
		ratings[r.Label] = r.AvgRating
	}
	if ratings["Acme Studio"] != 8.8 || ratings["Bravo Works"] != 9.1 {
		t.Fatalf("unexpected averages %v", ratings)
	}
}

func TestAverageRatingByPlatform(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	got := svc.AverageRatingBy(context.Background(), DimensionPlatform, domain.GameFilter{})

	ratings := map[string]float64{}
	for _, r := range got {
		ratings[r.Label] = r.AvgRating
	}
	// PC averages Game A and Game B; Game C never resolved a rating.
	if ratings["PC"] != 8.9 {
		t.Fatalf("expected PC average 8.9, got %v", ratings["PC"])
	}
	if ratings["PS4"] != 8.8 {
		t.Fatalf("expected PS4 average 8.8, got %v", ratings["PS4"])
	}
}

func TestSalesKPIs(t *testing.T) {
	sales := []domain.Document{
		{"title": "Game A", "platform": "PC", "region": "EU", "units": 100.0, "revenue": 999.5, "price": 9.995, "sale_date": "2020-01-10"},
		{"title": "Game A", "platform": "PS4", "region": "NA", "units": 50.0, "revenue": 500.0, "price": 10.0, "sale_date": "2020-02-10"},
		{"title": "Game B", "platform": "PC", "region": "EU", "units": 25.0, "revenue": 250.0, "price": 10.0, "sale_date": "2020-03-10"},
	}
	svc := NewService(&mockStore{}, &mockStore{docs: sales})

	got := svc.SalesKPIs(context.Background(), domain.SalesFilter{})
	if got.TotalSales != 3 || got.TotalUnits != 175 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if got.TotalRevenue != 1749.5 {
		t.Fatalf("expected revenue 1749.5, got %v", got.TotalRevenue)
	}
	if got.AvgPrice != 10.0 {
		t.Fatalf("expected average price 10.00, got %v", got.AvgPrice)
	}
	if len(got.Platforms) != 2 || got.Platforms[0].Platform != "PC" {
		t.Fatalf("platforms should rank by revenue, got %v", got.Platforms)
	}
	if len(got.TopSellers) != 2 || got.TopSellers[0].Title != "Game A" || got.TopSellers[0].Units != 150 {
		t.Fatalf("unexpected top sellers %v", got.TopSellers)
	}
}

func TestSalesKPIsAppliesFilter(t *testing.T) {
	sales := []domain.Document{
		{"title": "Game A", "platform": "PC", "region": "EU", "units": 100.0, "revenue": 1000.0, "price": 10.0, "sale_date": "2020-01-10"},
		{"title": "Game A", "platform": "PC", "region": "NA", "units": 40.0, "revenue": 400.0, "price": 10.0, "sale_date": "2020-01-12"},
	}
	svc := NewService(&mockStore{}, &mockStore{docs: sales})

	got := svc.SalesKPIs(context.Background(), domain.SalesFilter{Regions: []string{"EU"}})
	if got.TotalSales != 1 || got.TotalUnits != 100 {
		t.Fatalf("region filter should keep only the EU record, got %+v", got)
	}
}

func TestOverviewOnEmptyStore(t *testing.T) {
	svc, _, _ := newTestService(nil)
	got := svc.Overview(context.Background(), domain.GameFilter{})

	if got.TotalGames != 0 {
		t.Fatalf("empty store counts zero, got %d", got.TotalGames)
	}
	if got.Genres == nil || got.Platforms == nil || got.Years == nil || got.TopRated == nil {
		t.Fatalf("empty payload must keep non-nil lists: %+v", got)
	}
	if len(got.Genres) != 0 || len(got.TopRated) != 0 {
		t.Fatalf("expected empty lists, got %+v", got)
	}
}

func TestQueriesDegradeToDefaultsOnError(t *testing.T) {
	games := &mockStore{err: errors.New("connection reset")}
	sales := &mockStore{err: errors.New("connection reset")}
	svc := NewService(games, sales)
	ctx := context.Background()

	if got := svc.TotalCount(ctx, domain.GameFilter{}); got != 0 {
		t.Fatalf("TotalCount error default should be 0, got %d", got)
	}
	if got := svc.TopRated(ctx, domain.GameFilter{}, 5); got == nil || len(got) != 0 {
		t.Fatalf("TopRated error default should be empty, got %v", got)
	}
	if got := svc.CountBy(ctx, DimensionGenre, domain.GameFilter{}); got == nil || len(got) != 0 {
		t.Fatalf("CountBy error default should be empty, got %v", got)
	}
	if got := svc.CountByYear(ctx, domain.GameFilter{}); got == nil || len(got) != 0 {
		t.Fatalf("CountByYear error default should be empty, got %v", got)
	}

	summary := svc.SalesKPIs(ctx, domain.SalesFilter{})
	if summary.TotalSales != 0 || summary.Platforms == nil || len(summary.Platforms) != 0 {
		t.Fatalf("sales error default should be the empty summary, got %+v", summary)
	}

	overview := svc.Overview(ctx, domain.GameFilter{})
	if overview.TotalGames != 0 || overview.Genres == nil {
		t.Fatalf("overview error default should be empty, got %+v", overview)
	}
}

func TestQueriesIdempotent(t *testing.T) {
	svc, _, _ := newTestService(catalogFixture())
	ctx := context.Background()
	f := domain.GameFilter{Genres: []string{"Action"}}

	first := svc.CountBy(ctx, DimensionGenre, f)
	second := svc.CountBy(ctx, DimensionGenre, f)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated query over an unchanged store must match: %v vs %v", first, second)
	}
}
