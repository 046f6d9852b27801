package surveillance

import (
	"context"

	"github.com/google/uuid"
)

// CatalogRepository stores the program catalog.
type CatalogRepository interface {
	ListPrograms(ctx context.Context) ([]CatalogEntry, error)
	UpsertProgram(ctx context.Context, entry *CatalogEntry) error
	DeleteProgram(ctx context.Context, id string) error
}

// CompanyRepository stores employers and their program enrollment.
type CompanyRepository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	List(ctx context.Context, limit, offset int) ([]*Company, int, error)
	SetEnrolledPrograms(ctx context.Context, id uuid.UUID, programs []string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
