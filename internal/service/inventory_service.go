package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// InventoryService answers diagnostic questions about what an account owns
type InventoryService interface {
	Inspect(ctx context.Context, accountID uuid.UUID) (*domain.Inventory, error)
}

type inventoryService struct {
	accounts            repository.AccountRepository
	categories          repository.CategoryRepository
	products            repository.ProductRepository
	images              repository.ImageRepository
	defaultListingLimit int
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(
	accounts repository.AccountRepository,
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	images repository.ImageRepository,
	defaultListingLimit int,
) InventoryService {
	return &inventoryService{
		accounts:            accounts,
		categories:          categories,
		products:            products,
		images:              images,
		defaultListingLimit: defaultListingLimit,
	}
}

func (s *inventoryService) Inspect(ctx context.Context, accountID uuid.UUID) (*domain.Inventory, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	inv := &domain.Inventory{
		AccountID:    account.ID,
		Email:        account.Email,
		Role:         account.Role,
		Blocked:      account.Blocked,
		ListingLimit: account.ListingLimitOr(s.defaultListingLimit),
	}

	if inv.Categories, err = s.categories.CountByOwner(ctx, accountID); err != nil {
		return nil, err
	}
	if inv.Products, err = s.products.CountByOwner(ctx, accountID); err != nil {
		return nil, err
	}
	if inv.Images, err = s.images.CountByProductOwner(ctx, accountID); err != nil {
		return nil, err
	}
	if inv.ProductsWithoutFeatured, err = s.products.CountWithoutFeaturedImage(ctx, accountID); err != nil {
		return nil, err
	}

	return inv, nil
}
