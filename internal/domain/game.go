package domain

import (
	"time"

	"github.com/google/uuid"
)

// Well-known game document keys. The catalog is loosely typed: any of these
// may be absent or malformed in a given record, and the query layer must
// degrade per row rather than per query.
const (
	FieldTitle       = "title"
	FieldRating      = "rating"
	FieldVotes       = "votes"
	FieldGenre       = "genre"
	FieldPlatform    = "platform"
	FieldPublisher   = "publisher"
	FieldDeveloper   = "developer"
	FieldReleaseDate = "release_date"
)

// GameRecord is one title's catalog metadata as stored.
type GameRecord struct {
	ID        uuid.UUID `json:"id"`
	Doc       Document  `json:"properties"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGameRecord builds a record around a copied document so the caller's
// map stays untouched.
func NewGameRecord(doc Document) GameRecord {
	now := time.Now()
	return GameRecord{
		ID:        uuid.New(),
		Doc:       doc.Copy(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
