package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.Product, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	CountWithoutFeaturedImage(ctx context.Context, ownerID uuid.UUID) (int, error)
	Create(ctx context.Context, product *domain.Product) error
	UpdateFeaturedImage(ctx context.Context, id uuid.UUID, url string) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, owner_id, title, description, price, discounted_price, status, categories,
	brand, model, gender, condition, visible, checkout_url, colors, sizes, display_order,
	featured_image_url, created_at, updated_at`

// ListByOwner retrieves up to limit products of an account in display order
func (r *productRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE owner_id = $1
		ORDER BY display_order ASC, created_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID,
			&product.OwnerID,
			&product.Title,
			&product.Description,
			&product.Price,
			&product.DiscountedPrice,
			&product.Status,
			&product.Categories,
			&product.Brand,
			&product.Model,
			&product.Gender,
			&product.Condition,
			&product.Visible,
			&product.CheckoutURL,
			&product.Colors,
			&product.Sizes,
			&product.DisplayOrder,
			&product.FeaturedImageURL,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// CountByOwner returns the number of products of an account
func (r *productRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	total, err := countWhere(ctx, r.db, `SELECT COUNT(*) FROM products WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// CountWithoutFeaturedImage returns the number of products of an account with no featured image
func (r *productRepository) CountWithoutFeaturedImage(ctx context.Context, ownerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM products WHERE owner_id = $1 AND (featured_image_url IS NULL OR featured_image_url = '')`
	total, err := countWhere(ctx, r.db, query, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count products without featured image: %w", err)
	}
	return total, nil
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.OwnerID,
		product.Title,
		product.Description,
		product.Price,
		product.DiscountedPrice,
		product.Status,
		emptyIfNil(product.Categories),
		product.Brand,
		product.Model,
		product.Gender,
		product.Condition,
		product.Visible,
		product.CheckoutURL,
		emptyIfNil(product.Colors),
		emptyIfNil(product.Sizes),
		product.DisplayOrder,
		product.FeaturedImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// UpdateFeaturedImage sets the featured image URL of a product
func (r *productRepository) UpdateFeaturedImage(ctx context.Context, id uuid.UUID, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET featured_image_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("failed to update featured image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DeleteByOwner removes every product of an account and returns how many were deleted
func (r *productRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// emptyIfNil keeps NOT NULL text[] columns from receiving NULL
func emptyIfNil(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}
