package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type allowAll struct{}

func (allowAll) Authorize(context.Context, Credentials) (*Principal, error) {
	return &Principal{Method: "test"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.CloneEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.CloneEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) last() domain.CloneEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, uuid.UUID) (func(), bool, error) {
	return nil, false, nil
}

type brokenLocker struct{}

func (brokenLocker) Acquire(context.Context, uuid.UUID) (func(), bool, error) {
	return nil, false, errors.New("redis down")
}

// blockingProducts never finishes until released
type blockingProducts struct {
	release chan struct{}
}

func (b *blockingProducts) Clone(context.Context, uuid.UUID, uuid.UUID, int, ProductOptions, ProductProgressFunc) (ProductResult, error) {
	<-b.release
	return ProductResult{}, nil
}

func newTestOrchestrator(repos *fakeRepos, deps OrchestratorDeps) CloneOrchestrator {
	if deps.Strategy == nil {
		deps.Strategy = allowAll{}
	}
	if deps.Validator == nil {
		deps.Validator = NewAccountValidator(repos.accounts, 50)
	}
	if deps.Categories == nil {
		deps.Categories = NewCategoryCloner(repos.categories, zap.NewNop())
	}
	if deps.Products == nil {
		deps.Products = NewProductCloner(repos.products, repos.images, nil, ProductClonerConfig{}, zap.NewNop())
	}
	deps.Variant = VariantAdminJob
	deps.Logger = zap.NewNop()
	return NewCloneOrchestrator(deps)
}

func cloneRequest(source, target uuid.UUID, opts domain.CloneOptions) CloneRequest {
	return CloneRequest{SourceUserID: source.String(), TargetUserID: target.String(), Options: opts}
}

func TestRunRequiresAPhase(t *testing.T) {
	repos := newFakeRepos()
	orch := newTestOrchestrator(repos, OrchestratorDeps{})

	_, err := orch.Run(context.Background(), Credentials{}, cloneRequest(uuid.New(), uuid.New(), domain.CloneOptions{}), nil)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if repos.store.accountReads != 0 {
		t.Errorf("no account may be read for an invalid request")
	}
}

func TestRunRejectsMalformedRequests(t *testing.T) {
	repos := newFakeRepos()
	orch := newTestOrchestrator(repos, OrchestratorDeps{})
	id := uuid.New()
	opts := domain.CloneOptions{CloneCategories: true}

	requests := map[string]CloneRequest{
		"malformed source": {SourceUserID: "nope", TargetUserID: id.String(), Options: opts},
		"self clone":       cloneRequest(id, id, opts),
		"unknown strategy": cloneRequest(uuid.New(), id, domain.CloneOptions{CloneProducts: true, MergeStrategy: "upsert"}),
	}
	for name, req := range requests {
		if _, err := orch.Run(context.Background(), Credentials{}, req, nil); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}
	if repos.store.accountReads != 0 {
		t.Errorf("no account may be read for invalid requests")
	}
}

func TestRunAuthorizationFailsBeforeWork(t *testing.T) {
	repos := newFakeRepos()
	orch := newTestOrchestrator(repos, OrchestratorDeps{Strategy: NewSharedSecretAuthorizer("s3cret")})

	_, err := orch.Run(context.Background(), Credentials{APIKey: "wrong"},
		cloneRequest(uuid.New(), uuid.New(), domain.CloneOptions{CloneCategories: true}), nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if repos.store.accountReads != 0 {
		t.Errorf("unauthorized callers must not trigger reads")
	}
}

func TestRunReportsProgressAndAggregates(t *testing.T) {
	repos := newFakeRepos()
	source := repos.store.addAccount(50)
	target := repos.store.addAccount(50)
	repos.store.addCategory(source.ID, "Shoes")
	repos.store.addCategory(source.ID, "Bags")
	for i := 0; i < 3; i++ {
		repos.store.addProduct(source.ID, "P", i)
	}
	publisher := &recordingPublisher{}
	orch := newTestOrchestrator(repos, OrchestratorDeps{Publisher: publisher})

	var updates []domain.Progress
	report, err := orch.Run(context.Background(), Credentials{},
		cloneRequest(source.ID, target.ID, domain.CloneOptions{CloneCategories: true, CloneProducts: true}),
		func(p domain.Progress) { updates = append(updates, p) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.CategoriesCloned != 2 || report.ProductsCloned != 3 || !report.Success {
		t.Errorf("unexpected report %+v", report)
	}
	if report.SourceID != source.ID || report.TargetID != target.ID || report.FinishedAt.Before(report.StartedAt) {
		t.Errorf("report must be stamped: %+v", report)
	}

	if len(updates) == 0 || updates[len(updates)-1].Percentage != 100 {
		t.Fatalf("progress must end at 100: %+v", updates)
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Percentage < updates[i-1].Percentage {
			t.Fatalf("progress went backwards at %d: %+v", i, updates)
		}
	}

	if ev := publisher.last(); ev.Type != domain.CloneEventCompleted || ev.Report != report || ev.Variant != VariantAdminJob {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestRunSuccessRequiresSomethingCloned(t *testing.T) {
	repos := newFakeRepos()
	source := repos.store.addAccount(50)
	target := repos.store.addAccount(50)
	orch := newTestOrchestrator(repos, OrchestratorDeps{})

	report, err := orch.Run(context.Background(), Credentials{},
		cloneRequest(source.ID, target.ID, domain.CloneOptions{CloneCategories: true, CloneProducts: true}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Success {
		t.Errorf("an empty clone is not a success")
	}
}

func TestRunQuotaFailureKeepsCategoryOutcome(t *testing.T) {
	repos := newFakeRepos()
	source := repos.store.addAccount(50)
	target := repos.store.addAccount(1)
	repos.store.addCategory(source.ID, "Shoes")
	repos.store.addProduct(source.ID, "A", 0)
	repos.store.addProduct(source.ID, "B", 1)
	publisher := &recordingPublisher{}
	orch := newTestOrchestrator(repos, OrchestratorDeps{Publisher: publisher})

	report, err := orch.Run(context.Background(), Credentials{},
		cloneRequest(source.ID, target.ID, domain.CloneOptions{CloneCategories: true, CloneProducts: true}), nil)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if report == nil || report.CategoriesCloned != 1 || report.ProductsCloned != 0 {
		t.Errorf("categories are committed before the quota check: %+v", report)
	}
	if ev := publisher.last(); ev.Type != domain.CloneEventFailed || ev.Error == "" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestRunNotFound(t *testing.T) {
	repos := newFakeRepos()
	orch := newTestOrchestrator(repos, OrchestratorDeps{})

	_, err := orch.Run(context.Background(), Credentials{},
		cloneRequest(uuid.New(), uuid.New(), domain.CloneOptions{CloneProducts: true}), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunTimesOut(t *testing.T) {
	repos := newFakeRepos()
	source := repos.store.addAccount(50)
	target := repos.store.addAccount(50)
	blocked := &blockingProducts{release: make(chan struct{})}
	defer close(blocked.release)

	orch := newTestOrchestrator(repos, OrchestratorDeps{Products: blocked, Timeout: 50 * time.Millisecond})

	var mu sync.Mutex
	var last domain.Progress
	start := time.Now()
	report, err := orch.Run(context.Background(), Credentials{},
		cloneRequest(source.ID, target.ID, domain.CloneOptions{CloneProducts: true}),
		func(p domain.Progress) {
			mu.Lock()
			last = p
			mu.Unlock()
		})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if report != nil {
		t.Errorf("no report on timeout")
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout must not wait for the pipeline")
	}

	mu.Lock()
	defer mu.Unlock()
	if last.Percentage == 100 {
		t.Errorf("a timed out clone must not report completion")
	}
}

func TestRunTimesOutWhileProgressCallbackBlocks(t *testing.T) {
	repos := newFakeRepos()
	source := repos.store.addAccount(50)
	target := repos.store.addAccount(50)
	orch := newTestOrchestrator(repos, OrchestratorDeps{Timeout: 50 * time.Millisecond})

	unblock := make(chan struct{})
	t.Cleanup(func() { close(unblock) })

	result := make(chan error, 1)
	go func() {
		_, err := orch.Run(context.Background(), Credentials{},
			cloneRequest(source.ID, target.ID, domain.CloneOptions{CloneCategories: true}),
			func(domain.Progress) { <-unblock })
		result <- err
	}()

	select {
	case err := <-result:
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("a stuck progress callback must not delay the timeout")
	}
}

func TestRunRejectsConcurrentCloneIntoTarget(t *testing.T) {
	repos := newFakeRepos()
	orch := newTestOrchestrator(repos, OrchestratorDeps{Locker: busyLocker{}})

	_, err := orch.Run(context.Background(), Credentials{},
		cloneRequest(uuid.New(), uuid.New(), domain.CloneOptions{CloneCategories: true}), nil)
	if !errors.Is(err, ErrCloneInProgress) {
		t.Fatalf("expected ErrCloneInProgress, got %v", err)
	}
}

func TestRunProceedsWhenLockBackendFails(t *testing.T) {
	repos := newFakeRepos()
	source := repos.store.addAccount(50)
	target := repos.store.addAccount(50)
	repos.store.addCategory(source.ID, "Shoes")
	orch := newTestOrchestrator(repos, OrchestratorDeps{Locker: brokenLocker{}})

	report, err := orch.Run(context.Background(), Credentials{},
		cloneRequest(source.ID, target.ID, domain.CloneOptions{CloneCategories: true}), nil)
	if err != nil || report.CategoriesCloned != 1 {
		t.Fatalf("expected clone to proceed, got %+v %v", report, err)
	}
}
