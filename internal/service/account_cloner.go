package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewAccountInput carries the credentials of the account provisioned from a template
type NewAccountInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required,max=255"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,max=120"`
}

// AccountCloneResult summarises a full-account clone
type AccountCloneResult struct {
	Account             *domain.Account     `json:"account"`
	ProfileImagesCopied int                 `json:"profile_images_copied"`
	CustomColors        int                 `json:"custom_colors"`
	CustomSizes         int                 `json:"custom_sizes"`
	TrackingConfigs     int                 `json:"tracking_configs"`
	Report              *domain.CloneReport `json:"report"`
}

// AccountCloner provisions a new account as a copy of a template account
type AccountCloner interface {
	CloneAccount(ctx context.Context, templateID uuid.UUID, input NewAccountInput) (*AccountCloneResult, error)
}

type accountCloner struct {
	accounts       repository.AccountRepository
	customizations repository.CustomizationRepository
	accountService AccountService
	duplicator     ImageDuplicator
	categories     CategoryCloner
	products       ProductCloner
	defaultLimit   int
	logger         *zap.Logger
	now            func() time.Time
}

// NewAccountCloner creates a new instance of AccountCloner
func NewAccountCloner(
	accounts repository.AccountRepository,
	customizations repository.CustomizationRepository,
	accountService AccountService,
	duplicator ImageDuplicator,
	categories CategoryCloner,
	products ProductCloner,
	defaultListingLimit int,
	logger *zap.Logger,
) AccountCloner {
	return &accountCloner{
		accounts:       accounts,
		customizations: customizations,
		accountService: accountService,
		duplicator:     duplicator,
		categories:     categories,
		products:       products,
		defaultLimit:   defaultListingLimit,
		logger:         logger.Named("account_clone"),
		now:            time.Now,
	}
}

// CloneAccount creates the account, then copies the template's profile, customizations,
// categories and products into it. Any failure after creation deletes the new account.
func (c *accountCloner) CloneAccount(ctx context.Context, templateID uuid.UUID, input NewAccountInput) (*AccountCloneResult, error) {
	template, err := c.accounts.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: template account %s", ErrNotFound, templateID)
		}
		return nil, fmt.Errorf("failed to load template account: %w", err)
	}

	account, err := c.accountService.Register(ctx, RegisterInput{
		Email:        input.Email,
		Password:     input.Password,
		DisplayName:  input.DisplayName,
		Slug:         input.Slug,
		Role:         domain.RoleSeller,
		ListingLimit: template.ListingLimitOr(c.defaultLimit),
	})
	if err != nil {
		return nil, err
	}

	logger := c.logger.With(
		zap.String("template_id", templateID.String()),
		zap.String("account_id", account.ID.String()),
	)

	result, err := c.populate(ctx, template, account, logger)
	if err != nil {
		if delErr := c.accounts.Delete(context.WithoutCancel(ctx), account.ID); delErr != nil {
			logger.Error("Failed to delete partially provisioned account", zap.Error(delErr))
		} else {
			logger.Warn("Deleted partially provisioned account", zap.Error(err))
		}
		return nil, err
	}

	logger.Info("Account cloned from template",
		zap.Int("profile_images", result.ProfileImagesCopied),
		zap.Int("categories", result.Report.CategoriesCloned),
		zap.Int("products", result.Report.ProductsCloned),
	)
	return result, nil
}

func (c *accountCloner) populate(ctx context.Context, template, account *domain.Account, logger *zap.Logger) (*AccountCloneResult, error) {
	result := &AccountCloneResult{
		Account: account,
		Report:  domain.NewCloneReport(template.ID, account.ID, c.now()),
	}

	account.Phone = template.Phone
	account.WhatsApp = template.WhatsApp
	account.Bio = template.Bio
	account.City = template.City
	account.State = template.State
	account.Instagram = template.Instagram
	account.DisplaySettings = append([]byte(nil), template.DisplaySettings...)
	if account.DisplayName == "" {
		account.DisplayName = template.DisplayName
	}

	// Profile images are best effort: a failed copy leaves the slot empty.
	targetImages := account.ProfileImages()
	for i, img := range template.ProfileImages() {
		if *img.URL == "" {
			continue
		}
		newURL, err := c.duplicator.Rehost(ctx, *img.URL, account.ID)
		if err != nil {
			result.Report.AddErrors(fmt.Sprintf("profile %s: %v", img.Field, err))
			continue
		}
		*targetImages[i].URL = newURL
		result.ProfileImagesCopied++
	}

	if err := c.accounts.UpdateProfile(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to copy profile: %w", err)
	}

	if err := c.copyCustomizations(ctx, template.ID, account.ID, result); err != nil {
		return nil, err
	}

	categories, err := c.categories.Clone(ctx, template.ID, account.ID, domain.MergeStrategyMerge)
	if err != nil {
		return nil, err
	}
	result.Report.CategoriesCloned = categories.Cloned
	result.Report.AddErrors(categories.Errors...)

	products, err := c.products.Clone(ctx, template.ID, account.ID, account.ListingLimitOr(c.defaultLimit), ProductOptions{
		Strategy:   domain.MergeStrategyMerge,
		CopyImages: true,
	}, func(done, total int, title string) {
		logger.Debug("Template product cloned", zap.Int("done", done), zap.Int("total", total))
	})
	if err != nil {
		return nil, err
	}
	result.Report.ProductsCloned = products.Cloned
	result.Report.ProductsSkipped = products.Skipped
	result.Report.ImagesCloned = products.ImagesCloned
	result.Report.AddErrors(products.Errors...)

	result.Report.Finish(c.now())
	return result, nil
}

func (c *accountCloner) copyCustomizations(ctx context.Context, templateID, accountID uuid.UUID, result *AccountCloneResult) error {
	now := c.now()

	colors, err := c.customizations.ListColors(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to read custom colors: %w", err)
	}
	for _, color := range colors {
		color.ID, color.OwnerID, color.CreatedAt = uuid.New(), accountID, now
	}
	if err := c.customizations.CreateColors(ctx, colors); err != nil {
		return fmt.Errorf("failed to copy custom colors: %w", err)
	}
	result.CustomColors = len(colors)

	sizes, err := c.customizations.ListSizes(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to read custom sizes: %w", err)
	}
	for _, size := range sizes {
		size.ID, size.OwnerID, size.CreatedAt = uuid.New(), accountID, now
	}
	if err := c.customizations.CreateSizes(ctx, sizes); err != nil {
		return fmt.Errorf("failed to copy custom sizes: %w", err)
	}
	result.CustomSizes = len(sizes)

	configs, err := c.customizations.ListTrackingConfigs(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to read tracking configs: %w", err)
	}
	for _, cfg := range configs {
		cfg.ID, cfg.OwnerID, cfg.CreatedAt = uuid.New(), accountID, now
	}
	if err := c.customizations.CreateTrackingConfigs(ctx, configs); err != nil {
		return fmt.Errorf("failed to copy tracking configs: %w", err)
	}
	result.TrackingConfigs = len(configs)

	return nil
}
