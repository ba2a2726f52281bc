package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

type TaxonomyRepository interface {
	// FindByName returns the preferred item with that exact name: provisioned
	// items first, then the oldest explicit one.
	FindByName(ctx context.Context, kind domain.TaxonomyKind, name string) (*domain.TaxonomyItem, error)
	// Insert stores the item. Inserting a second provisioned item with the
	// same (kind, name) fails with domain.ErrDuplicateName.
	Insert(ctx context.Context, item *domain.TaxonomyItem) error
	List(ctx context.Context, kind domain.TaxonomyKind, limit int) ([]domain.TaxonomyItem, error)
}
