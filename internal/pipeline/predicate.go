package pipeline

import (
	"fmt"
	"strings"

	"github.com/gamedash/api/internal/normalize"
)

// Predicate is one node of the boolean filter tree. Every predicate renders
// to a SQL expression over derived columns and evaluates the same contract
// in memory, so the compiled and evaluated paths cannot drift apart.
type Predicate interface {
	SQL(b *Builder) string
	Match(row Row) bool
}

// And composes predicates; all must hold. Composing zero predicates yields
// a predicate that always matches.
func And(preds ...Predicate) Predicate {
	return andPredicate(preds)
}

type andPredicate []Predicate

func (p andPredicate) SQL(b *Builder) string {
	if len(p) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(p))
	for i, pred := range p {
		parts[i] = "(" + pred.SQL(b) + ")"
	}
	return strings.Join(parts, " AND ")
}

func (p andPredicate) Match(row Row) bool {
	for _, pred := range p {
		if !pred.Match(row) {
			return false
		}
	}
	return true
}

// NotNull requires the derived field to have resolved. Text fields resolve
// only for string-typed sources and numeric fields only for coercible
// numbers, so this doubles as the type guard of the base predicate.
func NotNull(field string) Predicate {
	return notNullPredicate{field: field}
}

type notNullPredicate struct {
	field string
}

func (p notNullPredicate) SQL(b *Builder) string {
	return p.field + " IS NOT NULL"
}

func (p notNullPredicate) Match(row Row) bool {
	return row[p.field] != nil
}

// Overlaps matches when the record's multi-value set shares at least one
// label with the requested values, case-insensitively. Within-field OR,
// across-field AND.
func Overlaps(field string, values []string) Predicate {
	return overlapsPredicate{field: field, values: values}
}

type overlapsPredicate struct {
	field  string
	values []string
}

func (p overlapsPredicate) SQL(b *Builder) string {
	arg := b.Bind(lowered(p.values))
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM unnest(%s) AS t(v) WHERE lower(btrim(t.v)) = ANY(%s::text[]))",
		p.field, arg)
}

func (p overlapsPredicate) Match(row Row) bool {
	labels, ok := row[p.field].([]string)
	if !ok {
		return false
	}
	return normalize.AnyTokenIn(labels, p.values)
}

// HasToken matches a single category label as a whole token within the
// record's delimited set; "RPG" does not match "RPG-lite".
func HasToken(field, token string) Predicate {
	return hasTokenPredicate{field: field, token: token}
}

type hasTokenPredicate struct {
	field string
	token string
}

func (p hasTokenPredicate) SQL(b *Builder) string {
	arg := b.Bind(strings.ToLower(strings.TrimSpace(p.token)))
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM unnest(%s) AS t(v) WHERE lower(btrim(t.v)) = %s)",
		p.field, arg)
}

func (p hasTokenPredicate) Match(row Row) bool {
	labels, ok := row[p.field].([]string)
	if !ok {
		return false
	}
	return normalize.TokenIn(labels, p.token)
}

// InFold matches a scalar text field against any of the requested values,
// case-insensitively.
func InFold(field string, values []string) Predicate {
	return inFoldPredicate{field: field, values: values}
}

type inFoldPredicate struct {
	field  string
	values []string
}

func (p inFoldPredicate) SQL(b *Builder) string {
	arg := b.Bind(lowered(p.values))
	return fmt.Sprintf("lower(btrim(%s)) = ANY(%s::text[])", p.field, arg)
}

func (p inFoldPredicate) Match(row Row) bool {
	s, ok := row[p.field].(string)
	if !ok {
		return false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range lowered(p.values) {
		if s == v {
			return true
		}
	}
	return false
}

// BetweenInt requires an integer field within [min, max] inclusive. Rows
// where the field never resolved (NULL year) are excluded.
func BetweenInt(field string, min, max int) Predicate {
	return betweenIntPredicate{field: field, min: min, max: max}
}

type betweenIntPredicate struct {
	field    string
	min, max int
}

func (p betweenIntPredicate) SQL(b *Builder) string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", p.field, b.Bind(p.min), b.Bind(p.max))
}

func (p betweenIntPredicate) Match(row Row) bool {
	v, ok := row[p.field].(int)
	if !ok {
		return false
	}
	return v >= p.min && v <= p.max
}

// AtLeast requires a numeric field >= min.
func AtLeast(field string, min float64) Predicate {
	return numericBoundPredicate{field: field, bound: min, op: ">="}
}

// AtMost requires a numeric field <= max.
func AtMost(field string, max float64) Predicate {
	return numericBoundPredicate{field: field, bound: max, op: "<="}
}

type numericBoundPredicate struct {
	field string
	bound float64
	op    string
}

func (p numericBoundPredicate) SQL(b *Builder) string {
	return fmt.Sprintf("%s %s %s", p.field, p.op, b.Bind(p.bound))
}

func (p numericBoundPredicate) Match(row Row) bool {
	v, ok := normalize.ToFloat(row[p.field])
	if !ok {
		return false
	}
	if p.op == ">=" {
		return v >= p.bound
	}
	return v <= p.bound
}

// ContainsFold performs a case-insensitive substring search on a text field.
func ContainsFold(field, term string) Predicate {
	return containsPredicate{field: field, term: term}
}

type containsPredicate struct {
	field string
	term  string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (p containsPredicate) SQL(b *Builder) string {
	arg := b.Bind("%" + likeEscaper.Replace(p.term) + "%")
	return fmt.Sprintf("%s ILIKE %s", p.field, arg)
}

func (p containsPredicate) Match(row Row) bool {
	s, ok := row[p.field].(string)
	if !ok {
		return false
	}
	return normalize.FoldContains(s, p.term)
}

// TextAtLeast lower-bounds a text field lexically (ISO dates order this way).
func TextAtLeast(field, min string) Predicate {
	return textBoundPredicate{field: field, bound: min, op: ">="}
}

// TextAtMost upper-bounds a text field lexically.
func TextAtMost(field, max string) Predicate {
	return textBoundPredicate{field: field, bound: max, op: "<="}
}

type textBoundPredicate struct {
	field string
	bound string
	op    string
}

func (p textBoundPredicate) SQL(b *Builder) string {
	return fmt.Sprintf("%s %s %s", p.field, p.op, b.Bind(p.bound))
}

func (p textBoundPredicate) Match(row Row) bool {
	s, ok := row[p.field].(string)
	if !ok {
		return false
	}
	if p.op == ">=" {
		return s >= p.bound
	}
	return s <= p.bound
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
