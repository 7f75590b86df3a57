package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// ImageRepository defines the interface for product image data access
type ImageRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Image, error)
	Create(ctx context.Context, image *domain.Image) error
	DeleteByProductOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountByProductOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type imageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepository{db: db}
}

// ListByProduct retrieves the images of a product in insertion order
func (r *imageRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Image, error) {
	query := `
		SELECT id, product_id, url, is_featured, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	images := make([]*domain.Image, 0)
	for rows.Next() {
		image := &domain.Image{}
		if err := rows.Scan(&image.ID, &image.ProductID, &image.URL, &image.IsFeatured, &image.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

// Create inserts a new image row
func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO product_images (id, product_id, url, is_featured, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, image.ID, image.ProductID, image.URL, image.IsFeatured, image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}

	return nil
}

// DeleteByProductOwner removes the images of every product owned by an account
func (r *imageRepository) DeleteByProductOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	query := `DELETE FROM product_images WHERE product_id IN (SELECT id FROM products WHERE owner_id = $1)`

	result, err := r.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete images: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CountByProductOwner returns the number of images across the products of an account
func (r *imageRepository) CountByProductOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM product_images pi
		JOIN products p ON p.id = pi.product_id
		WHERE p.owner_id = $1
	`
	total, err := countWhere(ctx, r.db, query, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return total, nil
}
