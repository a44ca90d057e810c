package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/normalize"
)

// DeriveKind selects how a derived field is computed from the raw document.
type DeriveKind int

const (
	// DeriveText resolves only when the source value is string-typed.
	DeriveText DeriveKind = iota
	// DeriveNumeric resolves when the source coerces to a number; anything
	// else yields NULL rather than an error.
	DeriveNumeric
	// DeriveList splits a delimited category field into a label set; empty
	// or absent source yields an empty set.
	DeriveList
	// DeriveYear extracts the year token of a MM/DD/YYYY-like date string;
	// unparsable dates yield NULL.
	DeriveYear
)

// DerivedField names one derived column and the document key it comes from.
type DerivedField struct {
	Name   string
	Source string
	Kind   DeriveKind
}

func (f DerivedField) sqlExpr() string {
	raw := fmt.Sprintf("s.properties ->> '%s'", f.Source)
	switch f.Kind {
	case DeriveText:
		return fmt.Sprintf(
			"CASE WHEN jsonb_typeof(s.properties -> '%s') = 'string' THEN %s END AS %s",
			f.Source, raw, f.Name)
	case DeriveNumeric:
		return fmt.Sprintf(
			"CASE WHEN %s ~ '^-?\\d+(\\.\\d+)?$' THEN (%s)::float8 END AS %s",
			raw, raw, f.Name)
	case DeriveList:
		return fmt.Sprintf(
			"COALESCE(regexp_split_to_array(NULLIF(btrim(%s), ''), '\\s*,\\s*'), ARRAY[]::text[]) AS %s",
			raw, f.Name)
	case DeriveYear:
		token := fmt.Sprintf("split_part(%s, '/', 3)", raw)
		return fmt.Sprintf("CASE WHEN %s ~ '^\\d+$' THEN (%s)::int END AS %s",
			token, token, f.Name)
	default:
		return raw + " AS " + f.Name
	}
}

func (f DerivedField) apply(doc domain.Document, row Row) {
	switch f.Kind {
	case DeriveText:
		if s, ok := doc.Text(f.Source); ok {
			row[f.Name] = s
		}
	case DeriveNumeric:
		if v, ok := normalize.ToFloat(doc[f.Source]); ok {
			row[f.Name] = v
		}
	case DeriveList:
		s, _ := doc.Text(f.Source)
		row[f.Name] = normalize.SplitList(s)
	case DeriveYear:
		if s, ok := doc.Text(f.Source); ok {
			if year, parsed := normalize.YearFromDate(s); parsed {
				row[f.Name] = year
			}
		}
	}
}

type deriveStage struct {
	fields []DerivedField
}

func (s *deriveStage) SQL(b *Builder, src string) string {
	exprs := make([]string, len(s.fields))
	for i, f := range s.fields {
		exprs[i] = f.sqlExpr()
	}
	return fmt.Sprintf("SELECT s.*, %s FROM %s s", strings.Join(exprs, ", "), src)
}

func (s *deriveStage) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		derived := copyRow(row)
		doc := docOf(row)
		for _, f := range s.fields {
			f.apply(doc, derived)
		}
		out = append(out, derived)
	}
	return out
}

type matchStage struct {
	pred Predicate
}

func (s *matchStage) SQL(b *Builder, src string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s", src, s.pred.SQL(b))
}

func (s *matchStage) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if s.pred.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

// unwindStage explodes a multi-value set field into one row per label. A
// title on two platforms contributes to both platform buckets, so group
// totals may exceed the record count by design. Records with an empty set
// produce no rows for this dimension but are untouched elsewhere.
type unwindStage struct {
	field string
	as    string
}

func (s *unwindStage) SQL(b *Builder, src string) string {
	return fmt.Sprintf(
		"SELECT s.*, btrim(u.val) AS %s FROM %s s CROSS JOIN LATERAL unnest(s.%s) AS u(val)",
		s.as, src, s.field)
}

func (s *unwindStage) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		labels, ok := row[s.field].([]string)
		if !ok {
			continue
		}
		for _, label := range labels {
			exploded := copyRow(row)
			exploded[s.as] = strings.TrimSpace(label)
			out = append(out, exploded)
		}
	}
	return out
}

// MetricOp is the aggregate computed per group.
type MetricOp string

const (
	MetricCount MetricOp = "count"
	MetricSum   MetricOp = "sum"
	MetricAvg   MetricOp = "avg"
)

// Metric names one aggregate output column.
type Metric struct {
	Name  string
	Op    MetricOp
	Field string
}

// Count produces a per-group row count.
func Count(name string) Metric {
	return Metric{Name: name, Op: MetricCount}
}

// Sum totals a numeric field per group; rows where the field never resolved
// contribute nothing.
func Sum(name, field string) Metric {
	return Metric{Name: name, Op: MetricSum, Field: field}
}

// Avg averages a numeric field per group, skipping unresolved rows.
func Avg(name, field string) Metric {
	return Metric{Name: name, Op: MetricAvg, Field: field}
}

func (m Metric) sqlExpr() string {
	switch m.Op {
	case MetricCount:
		return "COUNT(*)::bigint AS " + m.Name
	case MetricSum:
		return fmt.Sprintf("COALESCE(SUM(%s), 0)::float8 AS %s", m.Field, m.Name)
	case MetricAvg:
		return fmt.Sprintf("AVG(%s)::float8 AS %s", m.Field, m.Name)
	default:
		return "COUNT(*)::bigint AS " + m.Name
	}
}

// groupStage buckets rows by a key column. An empty key computes a single
// global aggregate row, which exists even over zero input rows.
type groupStage struct {
	key     string
	metrics []Metric
}

func (s *groupStage) SQL(b *Builder, src string) string {
	exprs := make([]string, len(s.metrics))
	for i, m := range s.metrics {
		exprs[i] = m.sqlExpr()
	}
	if s.key == "" {
		return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), src)
	}
	return fmt.Sprintf("SELECT %s, %s FROM %s GROUP BY %s",
		s.key, strings.Join(exprs, ", "), src, s.key)
}

type groupAcc struct {
	count int64
	sums  map[string]float64
	seen  map[string]int64
}

func (s *groupStage) Apply(rows []Row) []Row {
	order := make([]any, 0)
	buckets := make(map[any]*groupAcc)

	bucketFor := func(key any) *groupAcc {
		if acc, ok := buckets[key]; ok {
			return acc
		}
		acc := &groupAcc{sums: make(map[string]float64), seen: make(map[string]int64)}
		buckets[key] = acc
		order = append(order, key)
		return acc
	}

	if s.key == "" {
		bucketFor(nil)
	}

	for _, row := range rows {
		var key any
		if s.key != "" {
			key = row[s.key]
		}
		acc := bucketFor(key)
		acc.count++
		for _, m := range s.metrics {
			if m.Op == MetricCount {
				continue
			}
			if v, ok := normalize.ToFloat(row[m.Field]); ok {
				acc.sums[m.Name] += v
				acc.seen[m.Name]++
			}
		}
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		acc := buckets[key]
		row := Row{}
		if s.key != "" {
			row[s.key] = key
		}
		for _, m := range s.metrics {
			switch m.Op {
			case MetricCount:
				row[m.Name] = acc.count
			case MetricSum:
				row[m.Name] = acc.sums[m.Name]
			case MetricAvg:
				if acc.seen[m.Name] > 0 {
					row[m.Name] = acc.sums[m.Name] / float64(acc.seen[m.Name])
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// dropNullKeyStage removes groups whose key never resolved. It runs after
// grouping so partially known records still count toward the dimensions
// they do resolve.
type dropNullKeyStage struct {
	key string
}

func (s *dropNullKeyStage) SQL(b *Builder, src string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s IS NOT NULL AND btrim(%s::text) <> ''",
		src, s.key, s.key)
}

func (s *dropNullKeyStage) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		value := row[s.key]
		if value == nil {
			continue
		}
		if str, ok := value.(string); ok && strings.TrimSpace(str) == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}

type sortStage struct {
	field string
	desc  bool
}

func (s *sortStage) clause() string {
	dir := "ASC"
	if s.desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s NULLS LAST", s.field, dir)
}

func (s *sortStage) SQL(b *Builder, src string) string {
	return fmt.Sprintf("SELECT * FROM %s %s", src, s.clause())
}

// Apply sorts stably: rows comparing equal keep their input order, which is
// the declared tie-break for ranking queries.
func (s *sortStage) Apply(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := out[i][s.field], out[j][s.field]
		if vi == nil || vj == nil {
			// NULLS LAST regardless of direction.
			return vi != nil && vj == nil
		}
		c := compareValues(vi, vj)
		if s.desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

type limitStage struct {
	n int
}

func (s *limitStage) clause() string {
	return fmt.Sprintf("LIMIT %d", s.n)
}

func (s *limitStage) SQL(b *Builder, src string) string {
	return fmt.Sprintf("SELECT * FROM %s %s", src, s.clause())
}

func (s *limitStage) Apply(rows []Row) []Row {
	if s.n < 0 || len(rows) <= s.n {
		return rows
	}
	return rows[:s.n]
}

// compareValues orders two non-nil derived values, numerically when both
// sides coerce and lexically otherwise.
func compareValues(a, b any) int {
	af, aok := normalize.ToFloat(a)
	bf, bok := normalize.ToFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	return 0
}

func copyRow(row Row) Row {
	out := make(Row, len(row)+2)
	for k, v := range row {
		out[k] = v
	}
	return out
}

func docOf(row Row) domain.Document {
	switch v := row["properties"].(type) {
	case domain.Document:
		return v
	case map[string]any:
		return domain.Document(v)
	default:
		return domain.Document{}
	}
}
