// Package pipeline builds multi-stage aggregation pipelines over JSONB
// document collections. A pipeline is an ordered list of stages (derive,
// match, unwind, group, drop-null-key, sort, limit), each of which both
// compiles to a SQL fragment and evaluates over in-memory rows. The
// repository executes the compiled form against Postgres; tests and mocks
// run the same stages through Run.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/gamedash/api/internal/domain"
)

// Row is one document flowing through a pipeline: raw properties at the
// head, derived and aggregated columns further down.
type Row map[string]any

// Stage is one pipeline step. SQL renders a SELECT reading from the src
// relation; Apply evaluates the identical semantics over in-memory rows.
type Stage interface {
	SQL(b *Builder, src string) string
	Apply(rows []Row) []Row
}

// Pipeline is an ordered stage list over one collection.
type Pipeline struct {
	from   string
	stages []Stage
}

// New starts a pipeline over the named collection.
func New(from string) *Pipeline {
	return &Pipeline{from: from}
}

// From returns the collection the pipeline reads.
func (p *Pipeline) From() string {
	return p.from
}

// Derive appends a field-derivation stage.
func (p *Pipeline) Derive(fields ...DerivedField) *Pipeline {
	if len(fields) > 0 {
		p.stages = append(p.stages, &deriveStage{fields: fields})
	}
	return p
}

// Match appends a filter stage ANDing the given predicates. No predicates,
// no stage: an unrestricted filter restricts nothing.
func (p *Pipeline) Match(preds ...Predicate) *Pipeline {
	if len(preds) > 0 {
		p.stages = append(p.stages, &matchStage{pred: And(preds...)})
	}
	return p
}

// Unwind appends an explode stage turning the set field into one row per
// label, exposed under the `as` column.
func (p *Pipeline) Unwind(field, as string) *Pipeline {
	p.stages = append(p.stages, &unwindStage{field: field, as: as})
	return p
}

// Group appends a grouping stage. An empty key aggregates globally.
func (p *Pipeline) Group(key string, metrics ...Metric) *Pipeline {
	p.stages = append(p.stages, &groupStage{key: key, metrics: metrics})
	return p
}

// DropNullKey appends a stage removing groups with an unresolved key.
func (p *Pipeline) DropNullKey(key string) *Pipeline {
	p.stages = append(p.stages, &dropNullKeyStage{key: key})
	return p
}

// Sort appends an ordering stage; ties keep input order.
func (p *Pipeline) Sort(field string, desc bool) *Pipeline {
	p.stages = append(p.stages, &sortStage{field: field, desc: desc})
	return p
}

// Limit appends a top-N stage.
func (p *Pipeline) Limit(n int) *Pipeline {
	p.stages = append(p.stages, &limitStage{n: n})
	return p
}

// Compile renders the pipeline as a single SQL statement: a CTE per stage
// chained s0..sN, with trailing sort/limit stages lifted onto the outer
// SELECT so their ordering survives.
func (p *Pipeline) Compile() (string, []any) {
	b := NewBuilder()

	stages := p.stages
	var tail []Stage
	for len(stages) > 0 {
		last := stages[len(stages)-1]
		if _, isSort := last.(*sortStage); !isSort {
			if _, isLimit := last.(*limitStage); !isLimit {
				break
			}
		}
		tail = append([]Stage{last}, tail...)
		stages = stages[:len(stages)-1]
	}

	src := "s0"
	ctes := []string{fmt.Sprintf("s0 AS (SELECT id, properties FROM %s)", p.from)}
	for i, stage := range stages {
		name := fmt.Sprintf("s%d", i+1)
		ctes = append(ctes, fmt.Sprintf("%s AS (%s)", name, stage.SQL(b, src)))
		src = name
	}

	var sb strings.Builder
	sb.WriteString("WITH ")
	sb.WriteString(strings.Join(ctes, ",\n"))
	sb.WriteString("\nSELECT * FROM ")
	sb.WriteString(src)
	for _, stage := range tail {
		switch st := stage.(type) {
		case *sortStage:
			sb.WriteString(" ")
			sb.WriteString(st.clause())
		case *limitStage:
			sb.WriteString(" ")
			sb.WriteString(st.clause())
		}
	}
	return sb.String(), b.Args()
}

// Run evaluates the pipeline over in-memory rows, applying stages in order.
func (p *Pipeline) Run(rows []Row) []Row {
	out := rows
	for _, stage := range p.stages {
		out = stage.Apply(out)
	}
	return out
}

// DocRows wraps raw documents as pipeline input rows, mirroring the shape
// the base CTE produces.
func DocRows(docs []domain.Document) []Row {
	rows := make([]Row, len(docs))
	for i, doc := range docs {
		rows[i] = Row{"properties": doc}
	}
	return rows
}
