package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/pipeline"
)

// Collection names backing the document store.
const (
	GamesCollection = "games"
	SalesCollection = "game_sales"
)

// FindQuery is the raw-find capability: equality and existence predicates
// over document properties, with optional sort and limit. The zero value
// lists everything.
type FindQuery struct {
	Equals  map[string]any
	Exists  []string
	SortKey string
	Desc    bool
	Limit   int
}

// GameRepository defines catalog document access: CRUD passthroughs, raw
// find, and aggregation pipeline execution.
type GameRepository interface {
	Insert(ctx context.Context, doc domain.Document) (domain.GameRecord, error)
	Update(ctx context.Context, id uuid.UUID, doc domain.Document) (domain.GameRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.GameRecord, error)
	Find(ctx context.Context, q FindQuery) ([]domain.GameRecord, error)
	Count(ctx context.Context) (int64, error)
	Aggregate(ctx context.Context, p *pipeline.Pipeline) ([]pipeline.Row, error)
}

// SalesRepository defines sales document access with the same capabilities.
type SalesRepository interface {
	Insert(ctx context.Context, doc domain.Document) (domain.SalesRecord, error)
	Update(ctx context.Context, id uuid.UUID, doc domain.Document) (domain.SalesRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.SalesRecord, error)
	Find(ctx context.Context, q FindQuery) ([]domain.SalesRecord, error)
	Count(ctx context.Context) (int64, error)
	Aggregate(ctx context.Context, p *pipeline.Pipeline) ([]pipeline.Row, error)
}
