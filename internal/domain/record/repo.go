package record

import (
	"context"

	"github.com/google/uuid"
)

// ConsolidationRepository persists consolidated records together with the
// source records that produced them.
type ConsolidationRepository interface {
	Create(ctx context.Context, rec *ConsolidatedRecord, sources []SourceRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ConsolidatedRecord, error)
	GetSources(ctx context.Context, id uuid.UUID) ([]SourceRecord, error)
	ListByPerson(ctx context.Context, personRef string, limit, offset int) ([]*ConsolidatedRecord, int, error)
	List(ctx context.Context, limit, offset int) ([]*ConsolidatedRecord, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
