package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/pipeline"
)

type salesRepository struct {
	docRepository
}

// NewSalesRepository creates a repository over the game_sales collection.
func NewSalesRepository(pool *pgxpool.Pool) SalesRepository {
	return &salesRepository{docRepository{pool: pool, table: SalesCollection}}
}

func (r *salesRepository) Insert(ctx context.Context, doc domain.Document) (domain.SalesRecord, error) {
	row, err := r.insert(ctx, doc)
	if err != nil {
		return domain.SalesRecord{}, err
	}
	return salesFromRow(row), nil
}

func (r *salesRepository) Update(ctx context.Context, id uuid.UUID, doc domain.Document) (domain.SalesRecord, error) {
	row, err := r.update(ctx, id, doc)
	if err != nil {
		return domain.SalesRecord{}, err
	}
	return salesFromRow(row), nil
}

func (r *salesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, id)
}

func (r *salesRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.SalesRecord, error) {
	row, err := r.getByID(ctx, id)
	if err != nil {
		return domain.SalesRecord{}, err
	}
	return salesFromRow(row), nil
}

func (r *salesRepository) Find(ctx context.Context, q FindQuery) ([]domain.SalesRecord, error) {
	rows, err := r.find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SalesRecord, len(rows))
	for i, row := range rows {
		out[i] = salesFromRow(row)
	}
	return out, nil
}

func (r *salesRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx)
}

func (r *salesRepository) Aggregate(ctx context.Context, p *pipeline.Pipeline) ([]pipeline.Row, error) {
	return r.aggregate(ctx, p)
}

func salesFromRow(row docRow) domain.SalesRecord {
	return domain.SalesRecord{
		ID:        row.ID,
		Doc:       row.Doc,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
