package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/pipeline"
)

// docRepository is the shared document-store core both collections build
// on: one JSONB properties column per table, accessed through the pool.
type docRepository struct {
	pool  *pgxpool.Pool
	table string
}

type docRow struct {
	ID        uuid.UUID
	Doc       domain.Document
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *docRepository) insert(ctx context.Context, doc domain.Document) (docRow, error) {
	raw, err := doc.AsJSONB()
	if err != nil {
		return docRow{}, fmt.Errorf("marshal properties: %w", err)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (id, properties) VALUES ($1, $2) RETURNING id, properties, created_at, updated_at",
		r.table)
	return scanDocRow(r.pool.QueryRow(ctx, query, uuid.New(), raw))
}

func (r *docRepository) update(ctx context.Context, id uuid.UUID, doc domain.Document) (docRow, error) {
	raw, err := doc.AsJSONB()
	if err != nil {
		return docRow{}, fmt.Errorf("marshal properties: %w", err)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET properties = $2, updated_at = now() WHERE id = $1 RETURNING id, properties, created_at, updated_at",
		r.table)
	return scanDocRow(r.pool.QueryRow(ctx, query, id, raw))
}

func (r *docRepository) delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete from %s: %w", r.table, err)
	}
	return nil
}

func (r *docRepository) getByID(ctx context.Context, id uuid.UUID) (docRow, error) {
	query := fmt.Sprintf(
		"SELECT id, properties, created_at, updated_at FROM %s WHERE id = $1", r.table)
	return scanDocRow(r.pool.QueryRow(ctx, query, id))
}

func (r *docRepository) find(ctx context.Context, q FindQuery) ([]docRow, error) {
	b := pipeline.NewBuilder()
	where := make([]string, 0, len(q.Exists)+1)

	if len(q.Equals) > 0 {
		filterJSON, err := json.Marshal(q.Equals)
		if err != nil {
			return nil, fmt.Errorf("marshal find filter: %w", err)
		}
		where = append(where, fmt.Sprintf("properties @> %s::jsonb", b.Bind(filterJSON)))
	}
	for _, key := range q.Exists {
		where = append(where, fmt.Sprintf("properties ? %s::text", b.Bind(key)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT id, properties, created_at, updated_at FROM %s", r.table)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if q.SortKey != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY properties ->> %s::text %s NULLS LAST", b.Bind(q.SortKey), dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	rows, err := r.pool.Query(ctx, sb.String(), b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", r.table, err)
	}
	defer rows.Close()

	var out []docRow
	for rows.Next() {
		row, err := scanDocRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", r.table, err)
	}
	return out, nil
}

func (r *docRepository) count(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return count, nil
}

// aggregate compiles the pipeline to its CTE-chain statement and returns
// the resulting document sequence as generic rows.
func (r *docRepository) aggregate(ctx context.Context, p *pipeline.Pipeline) ([]pipeline.Row, error) {
	query, args := p.Compile()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute aggregation on %s: %w", p.From(), err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]pipeline.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read aggregation row: %w", err)
		}
		row := make(pipeline.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregation rows: %w", err)
	}
	return out, nil
}

func scanDocRow(row pgx.Row) (docRow, error) {
	var (
		out docRow
		raw json.RawMessage
	)
	if err := row.Scan(&out.ID, &raw, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return docRow{}, fmt.Errorf("scan document row: %w", err)
	}
	doc, err := domain.FromJSONB(raw)
	if err != nil {
		return docRow{}, fmt.Errorf("decode properties for %s: %w", out.ID, err)
	}
	out.Doc = doc
	return out, nil
}
