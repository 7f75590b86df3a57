package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory row store shared by the fake repositories
type memStore struct {
	mu         sync.Mutex
	accounts   map[uuid.UUID]*domain.Account
	categories []*domain.Category
	products   []*domain.Product
	images     []*domain.Image
	colors     []*domain.CustomColor
	sizes      []*domain.CustomSize
	tracking   []*domain.TrackingConfig

	accountReads int

	failCategoryBatch  error
	failProductCreate  func(*domain.Product) error
	failImageCreate    error
	failUpdateProfile  error
	failCreateTracking error
	failListCategories error
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (s *memStore) addAccount(limit int) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &domain.Account{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		Role:         domain.RoleSeller,
		ListingLimit: limit,
	}
	s.accounts[a.ID] = a
	return a
}

func (s *memStore) addCategory(owner uuid.UUID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, &domain.Category{ID: uuid.New(), OwnerID: owner, Name: name})
}

func (s *memStore) addProduct(owner uuid.UUID, title string, order int) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Product{
		ID:           uuid.New(),
		OwnerID:      owner,
		Title:        title,
		Status:       domain.ProductStatusAvailable,
		Categories:   []string{"Shoes"},
		DisplayOrder: order,
	}
	s.products = append(s.products, p)
	return p
}

func (s *memStore) addImage(productID uuid.UUID, url string, featured bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, &domain.Image{ID: uuid.New(), ProductID: productID, URL: url, IsFeatured: featured})
}

func (s *memStore) categoryNames(owner uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, c := range s.categories {
		if c.OwnerID == owner {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *memStore) productsOf(owner uuid.UUID) []*domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Product
	for _, p := range s.products {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) imagesOf(productID uuid.UUID) []*domain.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Image
	for _, i := range s.images {
		if i.ProductID == productID {
			out = append(out, i)
		}
	}
	return out
}

func (s *memStore) ownerOf(productID uuid.UUID) uuid.UUID {
	for _, p := range s.products {
		if p.ID == productID {
			return p.OwnerID
		}
	}
	return uuid.Nil
}

type fakeAccountRepo struct{ s *memStore }

func (r fakeAccountRepo) Create(_ context.Context, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if existing.Email == a.Email {
			return repository.ErrAccountAlreadyExists
		}
	}
	r.s.accounts[a.ID] = a
	return nil
}

func (r fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accountReads++
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r fakeAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accountReads++
	for _, a := range r.s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (r fakeAccountRepo) UpdateProfile(_ context.Context, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failUpdateProfile != nil {
		return r.s.failUpdateProfile
	}
	if _, ok := r.s.accounts[a.ID]; !ok {
		return repository.ErrAccountNotFound
	}
	cp := *a
	r.s.accounts[a.ID] = &cp
	return nil
}

func (r fakeAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(r.s.accounts, id)
	return nil
}

type fakeCategoryRepo struct{ s *memStore }

func (r fakeCategoryRepo) ListByOwner(_ context.Context, owner uuid.UUID) ([]*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failListCategories != nil {
		return nil, r.s.failListCategories
	}
	out := make([]*domain.Category, 0)
	for _, c := range r.s.categories {
		if c.OwnerID == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeCategoryRepo) CreateBatch(_ context.Context, categories []*domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCategoryBatch != nil {
		return r.s.failCategoryBatch
	}
	r.s.categories = append(r.s.categories, categories...)
	return nil
}

func (r fakeCategoryRepo) DeleteByOwner(_ context.Context, owner uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []*domain.Category
	var n int64
	for _, c := range r.s.categories {
		if c.OwnerID == owner {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.s.categories = kept
	return n, nil
}

func (r fakeCategoryRepo) CountByOwner(_ context.Context, owner uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.categories {
		if c.OwnerID == owner {
			n++
		}
	}
	return n, nil
}

type fakeProductRepo struct{ s *memStore }

func (r fakeProductRepo) ListByOwner(_ context.Context, owner uuid.UUID, limit int) ([]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.s.products {
		if p.OwnerID == owner {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeProductRepo) CountByOwner(_ context.Context, owner uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.products {
		if p.OwnerID == owner {
			n++
		}
	}
	return n, nil
}

func (r fakeProductRepo) CountWithoutFeaturedImage(_ context.Context, owner uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.products {
		if p.OwnerID == owner && (p.FeaturedImageURL == nil || *p.FeaturedImageURL == "") {
			n++
		}
	}
	return n, nil
}

func (r fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failProductCreate != nil {
		if err := r.s.failProductCreate(p); err != nil {
			return err
		}
	}
	cp := *p
	r.s.products = append(r.s.products, &cp)
	return nil
}

func (r fakeProductRepo) UpdateFeaturedImage(_ context.Context, id uuid.UUID, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.ID == id {
			u := url
			p.FeaturedImageURL = &u
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (r fakeProductRepo) DeleteByOwner(_ context.Context, owner uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []*domain.Product
	var n int64
	for _, p := range r.s.products {
		if p.OwnerID == owner {
			n++
			continue
		}
		kept = append(kept, p)
	}
	r.s.products = kept
	return n, nil
}

type fakeImageRepo struct{ s *memStore }

func (r fakeImageRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]*domain.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Image, 0)
	for _, i := range r.s.images {
		if i.ProductID == productID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeImageRepo) Create(_ context.Context, image *domain.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failImageCreate != nil {
		return r.s.failImageCreate
	}
	cp := *image
	r.s.images = append(r.s.images, &cp)
	return nil
}

func (r fakeImageRepo) DeleteByProductOwner(_ context.Context, owner uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []*domain.Image
	var n int64
	for _, i := range r.s.images {
		if r.s.ownerOf(i.ProductID) == owner {
			n++
			continue
		}
		kept = append(kept, i)
	}
	r.s.images = kept
	return n, nil
}

func (r fakeImageRepo) CountByProductOwner(_ context.Context, owner uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, i := range r.s.images {
		if r.s.ownerOf(i.ProductID) == owner {
			n++
		}
	}
	return n, nil
}

type fakeCustomizationRepo struct{ s *memStore }

func (r fakeCustomizationRepo) ListColors(_ context.Context, owner uuid.UUID) ([]*domain.CustomColor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.CustomColor, 0)
	for _, c := range r.s.colors {
		if c.OwnerID == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeCustomizationRepo) CreateColors(_ context.Context, colors []*domain.CustomColor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.colors = append(r.s.colors, colors...)
	return nil
}

func (r fakeCustomizationRepo) ListSizes(_ context.Context, owner uuid.UUID) ([]*domain.CustomSize, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.CustomSize, 0)
	for _, c := range r.s.sizes {
		if c.OwnerID == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeCustomizationRepo) CreateSizes(_ context.Context, sizes []*domain.CustomSize) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sizes = append(r.s.sizes, sizes...)
	return nil
}

func (r fakeCustomizationRepo) ListTrackingConfigs(_ context.Context, owner uuid.UUID) ([]*domain.TrackingConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.TrackingConfig, 0)
	for _, c := range r.s.tracking {
		if c.OwnerID == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeCustomizationRepo) CreateTrackingConfigs(_ context.Context, configs []*domain.TrackingConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreateTracking != nil {
		return r.s.failCreateTracking
	}
	r.s.tracking = append(r.s.tracking, configs...)
	return nil
}

// memBlobStore is an in-memory BlobStore
type memBlobStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	types      map[string]string
	removed    []string
	failUpload error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (b *memBlobStore) Upload(_ context.Context, path string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failUpload != nil {
		return b.failUpload
	}
	b.objects[path] = data
	b.types[path] = contentType
	return nil
}

func (b *memBlobStore) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func (b *memBlobStore) Remove(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, path)
	b.removed = append(b.removed, path)
	return nil
}

func (b *memBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func (b *memBlobStore) pathFor(url string) string {
	return strings.TrimPrefix(url, "https://cdn.example.com/")
}

type fakeRepos struct {
	store          *memStore
	accounts       fakeAccountRepo
	categories     fakeCategoryRepo
	products       fakeProductRepo
	images         fakeImageRepo
	customizations fakeCustomizationRepo
}

func newFakeRepos() *fakeRepos {
	s := newMemStore()
	return &fakeRepos{
		store:          s,
		accounts:       fakeAccountRepo{s},
		categories:     fakeCategoryRepo{s},
		products:       fakeProductRepo{s},
		images:         fakeImageRepo{s},
		customizations: fakeCustomizationRepo{s},
	}
}
