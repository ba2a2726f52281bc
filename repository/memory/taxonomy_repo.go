package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taxonomyRepository struct {
	mu    sync.RWMutex
	items []domain.TaxonomyItem
}

// NewTaxonomyRepository returns an in-process TaxonomyRepository. The
// per-name constraint for provisioned items is checked under the write lock,
// mirroring the partial unique index of the Postgres schema.
func NewTaxonomyRepository() repository.TaxonomyRepository {
	return &taxonomyRepository{}
}

func (r *taxonomyRepository) FindByName(_ context.Context, kind domain.TaxonomyKind, name string) (*domain.TaxonomyItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *domain.TaxonomyItem
	for i := range r.items {
		item := &r.items[i]
		if item.Kind != kind || item.Name != name {
			continue
		}
		if item.Provisioned {
			found := *item
			return &found, nil
		}
		if best == nil {
			best = item
		}
	}
	if best == nil {
		return nil, domain.ErrTaxonomyNotFound
	}
	found := *best
	return &found, nil
}

func (r *taxonomyRepository) Insert(_ context.Context, item *domain.TaxonomyItem) error {
	if item == nil || !item.Kind.Valid() {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if item.Provisioned {
		for _, existing := range r.items {
			if existing.Provisioned && existing.Kind == item.Kind && existing.Name == item.Name {
				return domain.ErrDuplicateName
			}
		}
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	r.items = append(r.items, *item)
	return nil
}

func (r *taxonomyRepository) List(_ context.Context, kind domain.TaxonomyKind, limit int) ([]domain.TaxonomyItem, error) {
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}

	r.mu.RLock()
	out := make([]domain.TaxonomyItem, 0)
	for _, item := range r.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
