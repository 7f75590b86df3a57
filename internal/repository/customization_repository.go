package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// CustomizationRepository covers the per-account storefront options copied on full account clones
type CustomizationRepository interface {
	ListColors(ctx context.Context, ownerID uuid.UUID) ([]*domain.CustomColor, error)
	CreateColors(ctx context.Context, colors []*domain.CustomColor) error
	ListSizes(ctx context.Context, ownerID uuid.UUID) ([]*domain.CustomSize, error)
	CreateSizes(ctx context.Context, sizes []*domain.CustomSize) error
	ListTrackingConfigs(ctx context.Context, ownerID uuid.UUID) ([]*domain.TrackingConfig, error)
	CreateTrackingConfigs(ctx context.Context, configs []*domain.TrackingConfig) error
}

type customizationRepository struct {
	db *sql.DB
}

// NewCustomizationRepository creates a new instance of CustomizationRepository
func NewCustomizationRepository(db *sql.DB) CustomizationRepository {
	return &customizationRepository{db: db}
}

func (r *customizationRepository) ListColors(ctx context.Context, ownerID uuid.UUID) ([]*domain.CustomColor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, hex, created_at FROM custom_colors WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom colors: %w", err)
	}
	defer rows.Close()

	colors := make([]*domain.CustomColor, 0)
	for rows.Next() {
		c := &domain.CustomColor{}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Hex, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom color: %w", err)
		}
		colors = append(colors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating custom colors: %w", err)
	}

	return colors, nil
}

func (r *customizationRepository) CreateColors(ctx context.Context, colors []*domain.CustomColor) error {
	rows := make([][]interface{}, 0, len(colors))
	for _, c := range colors {
		rows = append(rows, []interface{}{c.ID, c.OwnerID, c.Name, c.Hex, c.CreatedAt})
	}

	if err := insertBatch(ctx, r.db, "custom_colors", []string{"id", "owner_id", "name", "hex", "created_at"}, rows); err != nil {
		return fmt.Errorf("failed to create custom colors: %w", err)
	}
	return nil
}

func (r *customizationRepository) ListSizes(ctx context.Context, ownerID uuid.UUID) ([]*domain.CustomSize, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at FROM custom_sizes WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom sizes: %w", err)
	}
	defer rows.Close()

	sizes := make([]*domain.CustomSize, 0)
	for rows.Next() {
		s := &domain.CustomSize{}
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom size: %w", err)
		}
		sizes = append(sizes, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating custom sizes: %w", err)
	}

	return sizes, nil
}

func (r *customizationRepository) CreateSizes(ctx context.Context, sizes []*domain.CustomSize) error {
	rows := make([][]interface{}, 0, len(sizes))
	for _, s := range sizes {
		rows = append(rows, []interface{}{s.ID, s.OwnerID, s.Name, s.CreatedAt})
	}

	if err := insertBatch(ctx, r.db, "custom_sizes", []string{"id", "owner_id", "name", "created_at"}, rows); err != nil {
		return fmt.Errorf("failed to create custom sizes: %w", err)
	}
	return nil
}

func (r *customizationRepository) ListTrackingConfigs(ctx context.Context, ownerID uuid.UUID) ([]*domain.TrackingConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, provider, tracking_id, enabled, created_at FROM tracking_configs WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking configs: %w", err)
	}
	defer rows.Close()

	configs := make([]*domain.TrackingConfig, 0)
	for rows.Next() {
		c := &domain.TrackingConfig{}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Provider, &c.TrackingID, &c.Enabled, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tracking config: %w", err)
		}
		configs = append(configs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking configs: %w", err)
	}

	return configs, nil
}

func (r *customizationRepository) CreateTrackingConfigs(ctx context.Context, configs []*domain.TrackingConfig) error {
	rows := make([][]interface{}, 0, len(configs))
	for _, c := range configs {
		rows = append(rows, []interface{}{c.ID, c.OwnerID, c.Provider, c.TrackingID, c.Enabled, c.CreatedAt})
	}

	columns := []string{"id", "owner_id", "provider", "tracking_id", "enabled", "created_at"}
	if err := insertBatch(ctx, r.db, "tracking_configs", columns, rows); err != nil {
		return fmt.Errorf("failed to create tracking configs: %w", err)
	}
	return nil
}
