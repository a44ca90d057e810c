package pipeline

import (
	"strings"
	"testing"

	"github.com/gamedash/api/internal/domain"
)

func TestCompileChainsCTEs(t *testing.T) {
	f := domain.GameFilter{Genres: []string{"Action"}, MinRating: 8}
	query, args := New("games").
		Derive(GameFields()...).
		Match(append(BasePredicates(), GamePredicates(f, true)...)...).
		Unwind(ColGenreSet, "genre").
		Group("genre", Count("count")).
		DropNullKey("genre").
		Compile()

	for _, want := range []string{
		"WITH s0 AS (SELECT id, properties FROM games)",
		"s1 AS (",
		"CROSS JOIN LATERAL unnest",
		"GROUP BY genre",
		"SELECT * FROM s5",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("compiled query missing %q:\n%s", want, query)
		}
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 bound args (genre set, rating), got %d", len(args))
	}
}

func TestCompileLiftsTrailingSortAndLimit(t *testing.T) {
	query, _ := New("games").
		Derive(GameFields()...).
		Match(RatingPredicates()...).
		Sort(ColRating, true).
		Limit(10).
		Compile()

	idx := strings.LastIndex(query, "SELECT * FROM")
	outer := query[idx:]
	if !strings.Contains(outer, "ORDER BY rating DESC NULLS LAST") {
		t.Fatalf("sort must sit on the outer SELECT:\n%s", query)
	}
	if !strings.Contains(outer, "LIMIT 10") {
		t.Fatalf("limit must sit on the outer SELECT:\n%s", query)
	}
	if strings.Contains(query[:idx], "ORDER BY") {
		t.Fatalf("no ORDER BY may remain inside a CTE:\n%s", query)
	}
}

func TestCompileGlobalAggregate(t *testing.T) {
	query, _ := New("games").
		Derive(GameFields()...).
		Group("", Count("count")).
		Compile()

	if !strings.Contains(query, "COUNT(*)::bigint AS count") {
		t.Fatalf("missing global count:\n%s", query)
	}
	if strings.Contains(query, "GROUP BY") {
		t.Fatalf("global aggregate must not emit GROUP BY:\n%s", query)
	}
}

func TestBuilderPlaceholdersSequential(t *testing.T) {
	b := NewBuilder()
	if ph := b.Bind("x"); ph != "$1" {
		t.Fatalf("first placeholder should be $1, got %s", ph)
	}
	if ph := b.Bind(2); ph != "$2" {
		t.Fatalf("second placeholder should be $2, got %s", ph)
	}
	args := b.Args()
	if len(args) != 2 || args[0] != "x" || args[1] != 2 {
		t.Fatalf("unexpected args %v", args)
	}
}
