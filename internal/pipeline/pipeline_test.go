package pipeline

import (
	"testing"

	"github.com/gamedash/api/internal/domain"
)

func gameDoc(fields map[string]any) domain.Document {
	doc := domain.Document{}
	for k, v := range fields {
		doc[k] = v
	}
	return doc
}

func TestDeriveStageTypedColumns(t *testing.T) {
	docs := []domain.Document{
		gameDoc(map[string]any{
			"title":        "Game A",
			"rating":       "8.5",
			"genre":        "Action, Adventure",
			"release_date": "08/25/2014",
		}),
		gameDoc(map[string]any{
			"title":        12345, // non-string title stays unresolved
			"rating":       "N/A",
			"release_date": "bad date",
		}),
	}

	rows := New("games").Derive(GameFields()...).Run(DocRows(docs))
	if len(rows) != 2 {
		t.Fatalf("derive must keep every row, got %d", len(rows))
	}

	first := rows[0]
	if first[ColTitle] != "Game A" {
		t.Fatalf("unexpected title %v", first[ColTitle])
	}
	if first[ColRating] != 8.5 {
		t.Fatalf("numeric string should coerce, got %v", first[ColRating])
	}
	if labels, ok := first[ColGenreSet].([]string); !ok || len(labels) != 2 {
		t.Fatalf("expected two genre labels, got %v", first[ColGenreSet])
	}
	if first[ColReleaseYear] != 2014 {
		t.Fatalf("expected year 2014, got %v", first[ColReleaseYear])
	}

	second := rows[1]
	if second[ColTitle] != nil {
		t.Fatalf("non-string title must derive to nil, got %v", second[ColTitle])
	}
	if second[ColRating] != nil {
		t.Fatalf("unparsable rating must derive to nil, got %v", second[ColRating])
	}
	if second[ColReleaseYear] != nil {
		t.Fatalf("bad date must derive to nil year, got %v", second[ColReleaseYear])
	}
}

func TestUnwindExplodesMultiValueSets(t *testing.T) {
	docs := []domain.Document{
		gameDoc(map[string]any{"title": "Game A", "genre": "Action, Adventure"}),
		gameDoc(map[string]any{"title": "Game B", "genre": "Action"}),
		gameDoc(map[string]any{"title": "Game C"}), // empty set, no rows
	}

	rows := New("games").
		Derive(GameFields()...).
		Unwind(ColGenreSet, "genre").
		Run(DocRows(docs))

	// Explode-before-group: Game A contributes twice, so three rows total
	// from two genre-carrying records.
	if len(rows) != 3 {
		t.Fatalf("expected 3 exploded rows, got %d", len(rows))
	}
}

func TestGroupCountsExceedRecordCount(t *testing.T) {
	docs := []domain.Document{
		gameDoc(map[string]any{"title": "Game A", "genre": "Action, Adventure"}),
		gameDoc(map[string]any{"title": "Game B", "genre": "Action"}),
	}

	rows := New("games").
		Derive(GameFields()...).
		Unwind(ColGenreSet, "genre").
		Group("genre", Count("count")).
		Run(DocRows(docs))

	counts := map[string]int64{}
	var total int64
	for _, row := range rows {
		label := row["genre"].(string)
		counts[label] = row["count"].(int64)
		total += row["count"].(int64)
	}
	if counts["Action"] != 2 || counts["Adventure"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if total != 3 {
		t.Fatalf("column total %d should exceed the 2 source records", total)
	}
}

func TestDropNullKeyRunsAfterGrouping(t *testing.T) {
	docs := []domain.Document{
		gameDoc(map[string]any{"title": "Game A", "publisher": "Acme", "rating": 9.0}),
		gameDoc(map[string]any{"title": "Game B", "rating": 8.0}), // no publisher
	}

	p := New("games").
		Derive(GameFields()...).
		Group(ColPublisher, Count("count")).
		DropNullKey(ColPublisher)

	rows := p.Run(DocRows(docs))
	if len(rows) != 1 {
		t.Fatalf("null-key group should be dropped, got %d rows", len(rows))
	}
	if rows[0][ColPublisher] != "Acme" || rows[0]["count"] != int64(1) {
		t.Fatalf("unexpected surviving group %v", rows[0])
	}
}

func TestGlobalGroupEmitsRowOnEmptyInput(t *testing.T) {
	rows := New("games").Group("", Count("count")).Run(nil)
	if len(rows) != 1 {
		t.Fatalf("global aggregate must produce exactly one row, got %d", len(rows))
	}
	if rows[0]["count"] != int64(0) {
		t.Fatalf("empty input should count zero, got %v", rows[0]["count"])
	}
}

func TestSortStableTieBreakAndNullsLast(t *testing.T) {
	rows := []Row{
		{ColTitle: "first", ColRating: 8.0},
		{ColTitle: "nil rating"},
		{ColTitle: "second", ColRating: 8.0},
		{ColTitle: "top", ColRating: 9.0},
	}

	sorted := New("games").Sort(ColRating, true).Run(rows)

	want := []string{"top", "first", "second", "nil rating"}
	for i, title := range want {
		if sorted[i][ColTitle] != title {
			t.Fatalf("position %d: got %v, want %s", i, sorted[i][ColTitle], title)
		}
	}
}

func TestLimit(t *testing.T) {
	rows := []Row{{ColTitle: "a"}, {ColTitle: "b"}, {ColTitle: "c"}}
	out := New("games").Limit(2).Run(rows)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
}

func TestAvgSkipsUnresolvedRows(t *testing.T) {
	rows := []Row{
		{ColPublisher: "Acme", ColRating: 8.0},
		{ColPublisher: "Acme", ColRating: nil},
		{ColPublisher: "Acme", ColRating: 9.0},
	}
	out := New("games").Group(ColPublisher, Avg("avg_rating", ColRating)).Run(rows)
	if len(out) != 1 {
		t.Fatalf("expected one group, got %d", len(out))
	}
	if out[0]["avg_rating"] != 8.5 {
		t.Fatalf("nil ratings must not drag the average, got %v", out[0]["avg_rating"])
	}
}
