package pipeline

import (
	"strings"
	"testing"
)

func TestAndEmptyAlwaysMatches(t *testing.T) {
	p := And()
	if !p.Match(Row{}) {
		t.Fatalf("empty AND must match everything")
	}
	b := NewBuilder()
	if got := p.SQL(b); got != "TRUE" {
		t.Fatalf("empty AND should compile to TRUE, got %q", got)
	}
}

func TestNotNullActsAsTypeGuard(t *testing.T) {
	p := NotNull(ColRating)
	if p.Match(Row{ColRating: nil}) {
		t.Fatalf("nil rating should not match")
	}
	if p.Match(Row{}) {
		t.Fatalf("absent rating should not match")
	}
	if !p.Match(Row{ColRating: 8.5}) {
		t.Fatalf("resolved rating should match")
	}
}

func TestOverlapsCaseInsensitive(t *testing.T) {
	p := Overlaps(ColGenreSet, []string{"ACTION", "strategy"})
	if !p.Match(Row{ColGenreSet: []string{"action", "Adventure"}}) {
		t.Fatalf("expected case-insensitive overlap")
	}
	if p.Match(Row{ColGenreSet: []string{"Adventure"}}) {
		t.Fatalf("no shared label, should not match")
	}
	if p.Match(Row{}) {
		t.Fatalf("missing set should not match")
	}
}

func TestHasTokenWholeLabel(t *testing.T) {
	p := HasToken(ColGenreSet, "RPG")
	if p.Match(Row{ColGenreSet: []string{"RPG-lite"}}) {
		t.Fatalf("RPG must not match RPG-lite")
	}
	if !p.Match(Row{ColGenreSet: []string{"rpg", "Action"}}) {
		t.Fatalf("whole-label match should be case-insensitive")
	}
}

func TestBetweenIntExcludesUnresolved(t *testing.T) {
	p := BetweenInt(ColReleaseYear, 2010, 2015)
	if !p.Match(Row{ColReleaseYear: 2012}) {
		t.Fatalf("2012 is inside the range")
	}
	if p.Match(Row{ColReleaseYear: 2016}) {
		t.Fatalf("2016 is outside the range")
	}
	if p.Match(Row{}) {
		t.Fatalf("unresolved year must be excluded from year-filtered queries")
	}
}

func TestNumericBounds(t *testing.T) {
	if !AtLeast(ColRating, 8).Match(Row{ColRating: 8.0}) {
		t.Fatalf("bound is inclusive")
	}
	if AtLeast(ColRating, 8).Match(Row{ColRating: 7.9}) {
		t.Fatalf("7.9 < 8")
	}
	if !AtMost(ColSalesPrice, 60).Match(Row{ColSalesPrice: 59.99}) {
		t.Fatalf("59.99 <= 60")
	}
	if AtLeast(ColRating, 8).Match(Row{ColRating: "N/A"}) {
		t.Fatalf("non-numeric value must not satisfy a numeric bound")
	}
}

func TestContainsFoldEscapesLikeWildcards(t *testing.T) {
	p := ContainsFold(ColTitle, "100%")
	b := NewBuilder()
	p.SQL(b)
	args := b.Args()
	if len(args) != 1 {
		t.Fatalf("expected one bound arg, got %d", len(args))
	}
	bound, ok := args[0].(string)
	if !ok || !strings.Contains(bound, `\%`) {
		t.Fatalf("LIKE wildcard should be escaped in %q", bound)
	}
	if !p.Match(Row{ColTitle: "The 100% Run"}) {
		t.Fatalf("literal %% should match in memory")
	}
}

func TestTextBoundsOrderISODates(t *testing.T) {
	lo := TextAtLeast(ColSalesDate, "2020-01-01")
	hi := TextAtMost(ColSalesDate, "2020-06-30")
	row := Row{ColSalesDate: "2020-03-15"}
	if !lo.Match(row) || !hi.Match(row) {
		t.Fatalf("ISO date inside range should pass both bounds")
	}
	if lo.Match(Row{ColSalesDate: "2019-12-31"}) {
		t.Fatalf("date before the lower bound should fail")
	}
}

func TestInFold(t *testing.T) {
	p := InFold(ColSalesRegion, []string{"EU", "NA"})
	if !p.Match(Row{ColSalesRegion: " eu "}) {
		t.Fatalf("expected trimmed case-insensitive match")
	}
	if p.Match(Row{ColSalesRegion: "JP"}) {
		t.Fatalf("JP is not in the requested set")
	}
}

func TestPredicateSQLUsesPlaceholders(t *testing.T) {
	b := NewBuilder()
	sql := And(
		Overlaps(ColGenreSet, []string{"Action"}),
		AtLeast(ColRating, 8),
		ContainsFold(ColTitle, "zelda"),
	).SQL(b)

	for _, ph := range []string{"$1", "$2", "$3"} {
		if !strings.Contains(sql, ph) {
			t.Fatalf("expected placeholder %s in %q", ph, sql)
		}
	}
	if strings.Contains(sql, "zelda") {
		t.Fatalf("values must be bound, not inlined: %q", sql)
	}
	if len(b.Args()) != 3 {
		t.Fatalf("expected 3 args, got %d", len(b.Args()))
	}
}
