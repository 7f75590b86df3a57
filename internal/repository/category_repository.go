package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error)
	CreateBatch(ctx context.Context, categories []*domain.Category) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// ListByOwner retrieves every category of an account in creation order
func (r *categoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM categories
		WHERE owner_id = $1
		ORDER BY created_at ASC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.OwnerID, &category.Name, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// CreateBatch inserts all categories in one statement; either every row is written or none
func (r *categoryRepository) CreateBatch(ctx context.Context, categories []*domain.Category) error {
	rows := make([][]interface{}, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []interface{}{c.ID, c.OwnerID, c.Name, c.CreatedAt})
	}

	if err := insertBatch(ctx, r.db, "categories", []string{"id", "owner_id", "name", "created_at"}, rows); err != nil {
		return fmt.Errorf("failed to create categories: %w", err)
	}

	return nil
}

// DeleteByOwner removes every category of an account and returns how many were deleted
func (r *categoryRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete categories: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CountByOwner returns the number of categories of an account
func (r *categoryRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	total, err := countWhere(ctx, r.db, `SELECT COUNT(*) FROM categories WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return total, nil
}
