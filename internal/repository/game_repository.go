package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/pipeline"
)

type gameRepository struct {
	docRepository
}

// NewGameRepository creates a repository over the games collection.
func NewGameRepository(pool *pgxpool.Pool) GameRepository {
	return &gameRepository{docRepository{pool: pool, table: GamesCollection}}
}

func (r *gameRepository) Insert(ctx context.Context, doc domain.Document) (domain.GameRecord, error) {
	row, err := r.insert(ctx, doc)
	if err != nil {
		return domain.GameRecord{}, err
	}
	return gameFromRow(row), nil
}

func (r *gameRepository) Update(ctx context.Context, id uuid.UUID, doc domain.Document) (domain.GameRecord, error) {
	row, err := r.update(ctx, id, doc)
	if err != nil {
		return domain.GameRecord{}, err
	}
	return gameFromRow(row), nil
}

func (r *gameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, id)
}

func (r *gameRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.GameRecord, error) {
	row, err := r.getByID(ctx, id)
	if err != nil {
		return domain.GameRecord{}, err
	}
	return gameFromRow(row), nil
}

func (r *gameRepository) Find(ctx context.Context, q FindQuery) ([]domain.GameRecord, error) {
	rows, err := r.find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.GameRecord, len(rows))
	for i, row := range rows {
		out[i] = gameFromRow(row)
	}
	return out, nil
}

func (r *gameRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx)
}

func (r *gameRepository) Aggregate(ctx context.Context, p *pipeline.Pipeline) ([]pipeline.Row, error) {
	return r.aggregate(ctx, p)
}

func gameFromRow(row docRow) domain.GameRecord {
	return domain.GameRecord{
		ID:        row.ID,
		Doc:       row.Doc,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
