// Package normalize derives consistent queryable values from the loosely
// typed fields a catalog document carries. Every helper is a pure function
// that fails soft: malformed input yields an empty or absent result, never
// an error.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// listSeparator matches the fixed multi-value delimiter: a comma followed by
// optional whitespace. The SQL derive stage uses the same expression via
// regexp_split_to_array so both execution paths agree.
var listSeparator = regexp.MustCompile(`,\s*`)

// SplitList splits a delimited category field into its labels. Empty or
// absent source text yields an empty slice. Labels keep their stored casing.
func SplitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	parts := listSeparator.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// YearFromDate extracts the year component of a MM/DD/YYYY-like date string:
// the third slash-separated token, parsed numerically. ok is false when the
// date is absent, has no third token, or the token is not a number; callers
// must exclude such rows from year-keyed aggregations.
func YearFromDate(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	parts := strings.Split(raw, "/")
	if len(parts) < 3 {
		return 0, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// ToFloat coerces a document value to float64. Numeric strings are accepted
// because imported catalogs frequently store numbers as text. ok is false
// for anything that is not a number; the offending row is excluded from
// numeric aggregates, never the whole query.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// TokenIn reports whether token matches one of the labels exactly,
// case-insensitively. Matching whole labels rather than substrings keeps
// "RPG" from matching "RPG-lite".
func TokenIn(labels []string, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	for _, label := range labels {
		if strings.EqualFold(label, token) {
			return true
		}
	}
	return false
}

// AnyTokenIn reports whether any requested token is present among the
// labels (within-field OR semantics for multi-value filters).
func AnyTokenIn(labels []string, tokens []string) bool {
	for _, token := range tokens {
		if TokenIn(labels, token) {
			return true
		}
	}
	return false
}

// FoldContains reports a case-insensitive substring match for free-text
// title search.
func FoldContains(s, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}
