package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type accountClonerFixture struct {
	repos    *fakeRepos
	blobs    *memBlobStore
	cloner   AccountCloner
	template *domain.Account
	baseURL  string
}

func newAccountClonerFixture(t *testing.T) *accountClonerFixture {
	t.Helper()
	return newAccountClonerFixtureWithLimit(t, 0)
}

func newAccountClonerFixtureWithLimit(t *testing.T, defaultListingLimit int) *accountClonerFixture {
	t.Helper()
	srv := newImageServer(t)
	repos := newFakeRepos()
	blobs := newMemBlobStore()
	dup := newTestDuplicator(repos, blobs, srv.Client())

	template := repos.store.addAccount(10)
	template.DisplayName = "Modelo"
	template.Bio = "Loja modelo"
	template.City = "Recife"
	template.AvatarURL = srv.URL + "/a.png"
	template.CoverURL = srv.URL + "/missing.jpg"
	template.DisplaySettings = json.RawMessage(`{"theme":"dark"}`)

	repos.store.colors = append(repos.store.colors, &domain.CustomColor{ID: uuid.New(), OwnerID: template.ID, Name: "Azul", Hex: "#0000ff"})
	repos.store.sizes = append(repos.store.sizes, &domain.CustomSize{ID: uuid.New(), OwnerID: template.ID, Name: "GG"})
	repos.store.tracking = append(repos.store.tracking, &domain.TrackingConfig{ID: uuid.New(), OwnerID: template.ID, Provider: "ga4", TrackingID: "G-1", Enabled: true})

	repos.store.addCategory(template.ID, "Shoes")
	product := repos.store.addProduct(template.ID, "Tenis", 0)
	repos.store.addImage(product.ID, srv.URL+"/b.png", true)

	cloner := NewAccountCloner(
		repos.accounts,
		repos.customizations,
		NewAccountService(repos.accounts, "secret", 0),
		dup,
		NewCategoryCloner(repos.categories, zap.NewNop()),
		newTestProductCloner(repos, dup),
		defaultListingLimit,
		zap.NewNop(),
	)

	return &accountClonerFixture{repos: repos, blobs: blobs, cloner: cloner, template: template, baseURL: srv.URL}
}

func TestCloneAccountCopiesTemplate(t *testing.T) {
	f := newAccountClonerFixture(t)

	result, err := f.cloner.CloneAccount(context.Background(), f.template.ID, NewAccountInput{
		Email:       "Nova@Example.com",
		Password:    "password1",
		DisplayName: "Nova Loja",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := f.repos.accounts.FindByID(context.Background(), result.Account.ID)
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if stored.Email != "nova@example.com" || stored.DisplayName != "Nova Loja" || stored.Role != domain.RoleSeller {
		t.Errorf("unexpected identity: %+v", stored)
	}
	if stored.ListingLimit != 10 || stored.Bio != "Loja modelo" || stored.City != "Recife" {
		t.Errorf("profile not copied: %+v", stored)
	}
	if string(stored.DisplaySettings) != `{"theme":"dark"}` {
		t.Errorf("display settings not copied: %s", stored.DisplaySettings)
	}

	if !strings.HasPrefix(stored.AvatarURL, "https://cdn.example.com/profiles/"+stored.ID.String()+"-") {
		t.Errorf("avatar must be rehosted under the new account, got %q", stored.AvatarURL)
	}
	if stored.CoverURL != "" {
		t.Errorf("failed cover copy must leave the slot empty, got %q", stored.CoverURL)
	}
	if result.ProfileImagesCopied != 1 {
		t.Errorf("expected 1 profile image, got %d", result.ProfileImagesCopied)
	}

	if result.CustomColors != 1 || result.CustomSizes != 1 || result.TrackingConfigs != 1 {
		t.Errorf("customizations not copied: %+v", result)
	}

	report := result.Report
	if report.CategoriesCloned != 1 || report.ProductsCloned != 1 || report.ImagesCloned != 1 || !report.Success {
		t.Errorf("unexpected report %+v", report)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "profile cover") {
		t.Errorf("expected the cover failure in the report, got %v", report.Errors)
	}

	products := f.repos.store.productsOf(stored.ID)
	if len(products) != 1 || products[0].FeaturedImageURL == nil {
		t.Fatalf("product with featured image expected, got %+v", products)
	}
}

func TestCloneAccountDeletesAccountOnFailure(t *testing.T) {
	f := newAccountClonerFixture(t)
	f.repos.store.failCreateTracking = errInjected

	_, err := f.cloner.CloneAccount(context.Background(), f.template.ID, NewAccountInput{
		Email:       "nova@example.com",
		Password:    "password1",
		DisplayName: "Nova Loja",
	})
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if _, err := f.repos.accounts.FindByEmail(context.Background(), "nova@example.com"); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Errorf("partially provisioned account must be deleted, got %v", err)
	}
}

func TestCloneAccountFailsWhenTemplateExceedsItsLimit(t *testing.T) {
	f := newAccountClonerFixture(t)
	f.template.ListingLimit = 1
	f.repos.store.addProduct(f.template.ID, "Bolsa", 1)

	_, err := f.cloner.CloneAccount(context.Background(), f.template.ID, NewAccountInput{
		Email:       "nova@example.com",
		Password:    "password1",
		DisplayName: "Nova Loja",
	})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if _, err := f.repos.accounts.FindByEmail(context.Background(), "nova@example.com"); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Errorf("account must be deleted after a quota failure")
	}
}

func TestCloneAccountUnknownTemplate(t *testing.T) {
	f := newAccountClonerFixture(t)
	_, err := f.cloner.CloneAccount(context.Background(), uuid.New(), NewAccountInput{Email: "x@example.com", Password: "password1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCloneAccountDuplicateEmailKeepsExistingAccount(t *testing.T) {
	f := newAccountClonerFixture(t)

	_, err := f.cloner.CloneAccount(context.Background(), f.template.ID, NewAccountInput{
		Email:       f.template.Email,
		Password:    "password1",
		DisplayName: "Copia",
	})
	if !errors.Is(err, repository.ErrAccountAlreadyExists) {
		t.Fatalf("expected ErrAccountAlreadyExists, got %v", err)
	}
	if _, err := f.repos.accounts.FindByID(context.Background(), f.template.ID); err != nil {
		t.Errorf("existing account must survive: %v", err)
	}
}

func TestCloneAccountUsesConfiguredListingLimit(t *testing.T) {
	f := newAccountClonerFixtureWithLimit(t, 2)
	f.template.ListingLimit = 0

	result, err := f.cloner.CloneAccount(context.Background(), f.template.ID, NewAccountInput{
		Email:    "limite@example.com",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := f.repos.accounts.FindByID(context.Background(), result.Account.ID)
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if stored.ListingLimit != 2 {
		t.Errorf("expected configured listing limit 2, got %d", stored.ListingLimit)
	}
	if result.Report.ProductsCloned != 1 {
		t.Errorf("template product should fit the configured limit, got %d", result.Report.ProductsCloned)
	}
}
