package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taxonomyRepository struct {
	pool *pgxpool.Pool
}

// NewTaxonomyRepository stores categories and tags in the shared taxonomy table.
func NewTaxonomyRepository(pool *pgxpool.Pool) repository.TaxonomyRepository {
	return &taxonomyRepository{pool: pool}
}

func (r *taxonomyRepository) FindByName(ctx context.Context, kind domain.TaxonomyKind, name string) (*domain.TaxonomyItem, error) {
	const query = `
	SELECT id, name, provisioned, created_at
	FROM taxonomy
	WHERE kind = $1 AND name = $2
	ORDER BY provisioned DESC, created_at, id
	LIMIT 1
	`
	item := domain.TaxonomyItem{Kind: kind}
	if err := r.pool.QueryRow(ctx, query, kind.String(), name).Scan(&item.ID, &item.Name, &item.Provisioned, &item.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaxonomyNotFound
		}
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return &item, nil
}

func (r *taxonomyRepository) Insert(ctx context.Context, item *domain.TaxonomyItem) error {
	if item == nil || !item.Kind.Valid() {
		return domain.ErrInvalidPayload
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO taxonomy (id, kind, name, provisioned)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, item.ID, item.Kind.String(), item.Name, item.Provisioned).Scan(&item.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("insert %s: %w", item.Kind, err)
	}
	return nil
}

func (r *taxonomyRepository) List(ctx context.Context, kind domain.TaxonomyKind, limit int) ([]domain.TaxonomyItem, error) {
	const query = `
	SELECT id, name, provisioned, created_at
	FROM taxonomy
	WHERE kind = $1
	ORDER BY name, created_at
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, kind.String(), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	items := make([]domain.TaxonomyItem, 0)
	for rows.Next() {
		item := domain.TaxonomyItem{Kind: kind}
		if err := rows.Scan(&item.ID, &item.Name, &item.Provisioned, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
