package pipeline

import "github.com/gamedash/api/internal/domain"

// Derived column names shared by the catalog queries.
const (
	ColTitle       = "title"
	ColRating      = "rating"
	ColVotes       = "votes"
	ColPublisher   = "publisher"
	ColDeveloper   = "developer"
	ColCategory    = "category"
	ColGenreSet    = "genre_set"
	ColPlatformSet = "platform_set"
	ColReleaseYear = "release_year"
)

// Derived column names for the sales collection.
const (
	ColSalesTitle    = "title"
	ColSalesPlatform = "platform"
	ColSalesRegion   = "region"
	ColSalesUnits    = "units"
	ColSalesRevenue  = "revenue"
	ColSalesPrice    = "price"
	ColSalesDate     = "sale_date"
)

// GameFields is the standard derivation set for catalog queries: typed
// scalars plus the genre/platform label sets and the release year.
func GameFields() []DerivedField {
	return []DerivedField{
		{Name: ColTitle, Source: domain.FieldTitle, Kind: DeriveText},
		{Name: ColRating, Source: domain.FieldRating, Kind: DeriveNumeric},
		{Name: ColVotes, Source: domain.FieldVotes, Kind: DeriveNumeric},
		{Name: ColPublisher, Source: domain.FieldPublisher, Kind: DeriveText},
		{Name: ColDeveloper, Source: domain.FieldDeveloper, Kind: DeriveText},
		{Name: ColCategory, Source: domain.FieldGenre, Kind: DeriveText},
		{Name: ColGenreSet, Source: domain.FieldGenre, Kind: DeriveList},
		{Name: ColPlatformSet, Source: domain.FieldPlatform, Kind: DeriveList},
		{Name: ColReleaseYear, Source: domain.FieldReleaseDate, Kind: DeriveYear},
	}
}

// SalesFields is the derivation set for sales KPI queries.
func SalesFields() []DerivedField {
	return []DerivedField{
		{Name: ColSalesTitle, Source: domain.SalesFieldTitle, Kind: DeriveText},
		{Name: ColSalesPlatform, Source: domain.SalesFieldPlatform, Kind: DeriveText},
		{Name: ColSalesRegion, Source: domain.SalesFieldRegion, Kind: DeriveText},
		{Name: ColSalesUnits, Source: domain.SalesFieldUnits, Kind: DeriveNumeric},
		{Name: ColSalesRevenue, Source: domain.SalesFieldRevenue, Kind: DeriveNumeric},
		{Name: ColSalesPrice, Source: domain.SalesFieldPrice, Kind: DeriveNumeric},
		{Name: ColSalesDate, Source: domain.SalesFieldDate, Kind: DeriveText},
	}
}

// BasePredicates guards count-style queries: the record must carry a
// text-typed title.
func BasePredicates() []Predicate {
	return []Predicate{NotNull(ColTitle)}
}

// RatingPredicates guards rating-centric queries: title must be text and
// rating must have coerced to a number, so type failures never pollute
// averages or rankings.
func RatingPredicates() []Predicate {
	return []Predicate{NotNull(ColTitle), NotNull(ColRating)}
}

// GamePredicates translates an already-normalized catalog filter into its
// predicate list. Absent components contribute nothing. withYears controls
// whether the year range applies; operations declare this per query.
func GamePredicates(f domain.GameFilter, withYears bool) []Predicate {
	var preds []Predicate
	if len(f.Genres) > 0 {
		preds = append(preds, Overlaps(ColGenreSet, f.Genres))
	}
	if len(f.Platforms) > 0 {
		preds = append(preds, Overlaps(ColPlatformSet, f.Platforms))
	}
	if withYears && f.HasYearRange() {
		lo, hi := f.YearStart, f.YearEnd
		if hi == 0 {
			hi = 9999
		}
		preds = append(preds, BetweenInt(ColReleaseYear, lo, hi))
	}
	if f.MinRating > 0 {
		preds = append(preds, AtLeast(ColRating, f.MinRating))
	}
	if f.MinVotes > 0 {
		preds = append(preds, AtLeast(ColVotes, float64(f.MinVotes)))
	}
	if f.Search != "" {
		preds = append(preds, ContainsFold(ColTitle, f.Search))
	}
	return preds
}

// SalesPredicates translates an already-normalized sales filter.
func SalesPredicates(f domain.SalesFilter) []Predicate {
	var preds []Predicate
	if len(f.Titles) > 0 {
		preds = append(preds, InFold(ColSalesTitle, f.Titles))
	}
	if len(f.Platforms) > 0 {
		preds = append(preds, InFold(ColSalesPlatform, f.Platforms))
	}
	if len(f.Regions) > 0 {
		preds = append(preds, InFold(ColSalesRegion, f.Regions))
	}
	if f.DateStart != "" {
		preds = append(preds, TextAtLeast(ColSalesDate, f.DateStart))
	}
	if f.DateEnd != "" {
		preds = append(preds, TextAtMost(ColSalesDate, f.DateEnd))
	}
	if f.PriceMin > 0 {
		preds = append(preds, AtLeast(ColSalesPrice, f.PriceMin))
	}
	if f.PriceMax > 0 {
		preds = append(preds, AtMost(ColSalesPrice, f.PriceMax))
	}
	return preds
}
