package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryResult is the outcome of the category phase
type CategoryResult struct {
	Cloned int
	Errors []string
}

// CategoryCloner copies category names from one account to another
type CategoryCloner interface {
	Clone(ctx context.Context, sourceID, targetID uuid.UUID, strategy domain.MergeStrategy) (CategoryResult, error)
}

type categoryCloner struct {
	categories repository.CategoryRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewCategoryCloner creates a new instance of CategoryCloner
func NewCategoryCloner(categories repository.CategoryRepository, logger *zap.Logger) CategoryCloner {
	return &categoryCloner{categories: categories, logger: logger, now: time.Now}
}

// Clone returns an error only when the source or target categories cannot be read.
// Delete and insert failures abort the phase and are recorded in the result.
func (c *categoryCloner) Clone(ctx context.Context, sourceID, targetID uuid.UUID, strategy domain.MergeStrategy) (CategoryResult, error) {
	result := CategoryResult{Errors: []string{}}

	source, err := c.categories.ListByOwner(ctx, sourceID)
	if err != nil {
		return result, fmt.Errorf("failed to read source categories: %w", err)
	}

	var names []string
	switch strategy {
	case domain.MergeStrategyReplace:
		// Deleted categories are not restored if the insert below fails.
		deleted, err := c.categories.DeleteByOwner(ctx, targetID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to remove existing categories: %v", err))
			return result, nil
		}
		c.logger.Debug("Removed target categories", zap.Int64("deleted", deleted))

		for _, category := range source {
			names = append(names, category.Name)
		}
	default:
		existing, err := c.categories.ListByOwner(ctx, targetID)
		if err != nil {
			return result, fmt.Errorf("failed to read target categories: %w", err)
		}

		seen := make(map[string]struct{}, len(existing)+len(source))
		for _, category := range existing {
			seen[strings.ToLower(category.Name)] = struct{}{}
		}
		for _, category := range source {
			key := strings.ToLower(category.Name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, category.Name)
		}
	}

	if len(names) == 0 {
		return result, nil
	}

	now := c.now()
	batch := make([]*domain.Category, 0, len(names))
	for _, name := range names {
		batch = append(batch, &domain.Category{
			ID:        uuid.New(),
			OwnerID:   targetID,
			Name:      name,
			CreatedAt: now,
		})
	}

	if err := c.categories.CreateBatch(ctx, batch); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to clone categories: %v", err))
		return result, nil
	}

	result.Cloned = len(batch)
	return result, nil
}
