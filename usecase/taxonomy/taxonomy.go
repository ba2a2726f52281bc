package taxonomy

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const maxProvisionAttempts = 3

type UseCase struct {
	items  repository.TaxonomyRepository
	logger *zap.Logger
}

func New(items repository.TaxonomyRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{items: items, logger: logger}
}

// FindOrCreate returns the item with this exact name, provisioning one when
// none exists. Concurrent callers converge on a single provisioned item: the
// loser of the insert race sees domain.ErrDuplicateName and re-reads the winner.
func (uc *UseCase) FindOrCreate(ctx context.Context, kind domain.TaxonomyKind, name string) (*domain.TaxonomyItem, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidPayload
	}
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	for attempt := 0; attempt < maxProvisionAttempts; attempt++ {
		item, err := uc.items.FindByName(ctx, kind, name)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrTaxonomyNotFound) {
			return nil, err
		}

		candidate := &domain.TaxonomyItem{Kind: kind, Name: name, Provisioned: true}
		err = uc.items.Insert(ctx, candidate)
		if err == nil {
			uc.logger.Debug("taxonomy item provisioned",
				zap.Stringer("kind", kind),
				zap.String("name", name),
				zap.String("id", candidate.ID))
			return candidate, nil
		}
		if !errors.Is(err, domain.ErrDuplicateName) {
			return nil, err
		}
		uc.logger.Debug("lost provisioning race, re-reading", zap.Stringer("kind", kind), zap.String("name", name))
	}

	return nil, domain.WrapError(domain.ErrCodeInternal, "taxonomy provisioning did not converge", domain.ErrDuplicateName)
}

// Create always inserts a new item, even when the name is already taken.
func (uc *UseCase) Create(ctx context.Context, kind domain.TaxonomyKind, name string) (*domain.TaxonomyItem, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidPayload
	}
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	item := &domain.TaxonomyItem{Kind: kind, Name: name}
	if err := uc.items.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *UseCase) List(ctx context.Context, kind domain.TaxonomyKind) ([]domain.TaxonomyItem, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidPayload
	}
	return uc.items.List(ctx, kind, repository.MaxListLimit)
}
