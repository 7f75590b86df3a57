package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// ValidatedPair holds the two accounts of a clone and the quota the target may fill
type ValidatedPair struct {
	Source       *domain.Account
	Target       *domain.Account
	ListingLimit int
}

// AccountValidator checks that a clone names two distinct existing accounts
type AccountValidator interface {
	Validate(ctx context.Context, sourceID, targetID uuid.UUID) (*ValidatedPair, error)
}

type accountValidator struct {
	accounts            repository.AccountRepository
	defaultListingLimit int
}

// NewAccountValidator creates a new instance of AccountValidator
func NewAccountValidator(accounts repository.AccountRepository, defaultListingLimit int) AccountValidator {
	if defaultListingLimit <= 0 {
		defaultListingLimit = domain.DefaultListingLimit
	}
	return &accountValidator{accounts: accounts, defaultListingLimit: defaultListingLimit}
}

func (v *accountValidator) Validate(ctx context.Context, sourceID, targetID uuid.UUID) (*ValidatedPair, error) {
	if sourceID == uuid.Nil || targetID == uuid.Nil {
		return nil, fmt.Errorf("%w: source and target account ids are required", ErrInvalidRequest)
	}
	if sourceID == targetID {
		return nil, fmt.Errorf("%w: source and target must be different accounts", ErrInvalidRequest)
	}

	source, err := v.find(ctx, sourceID, "source")
	if err != nil {
		return nil, err
	}
	target, err := v.find(ctx, targetID, "target")
	if err != nil {
		return nil, err
	}

	return &ValidatedPair{Source: source, Target: target, ListingLimit: target.ListingLimitOr(v.defaultListingLimit)}, nil
}

func (v *accountValidator) find(ctx context.Context, id uuid.UUID, role string) (*domain.Account, error) {
	account, err := v.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s account %s", ErrNotFound, role, id)
		}
		return nil, fmt.Errorf("failed to load %s account: %w", role, err)
	}
	return account, nil
}
