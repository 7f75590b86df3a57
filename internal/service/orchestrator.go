package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultCloneTimeout = 5 * time.Minute

	VariantAdminCLI  = "admin-cli"
	VariantAdminJob  = "admin-job"
	VariantPublicJob = "public-job"
)

// CloneRequest is the payload shared by every clone entry point
type CloneRequest struct {
	SourceUserID string              `json:"sourceUserId"`
	TargetUserID string              `json:"targetUserId"`
	Options      domain.CloneOptions `json:"options"`
}

// ProgressFunc receives progress notifications while a clone runs
type ProgressFunc func(domain.Progress)

// TargetLocker guards a target account against concurrent clones
type TargetLocker interface {
	Acquire(ctx context.Context, targetID uuid.UUID) (release func(), acquired bool, err error)
}

// ClonePublisher emits clone outcome events
type ClonePublisher interface {
	Publish(ctx context.Context, event domain.CloneEvent) error
}

// CloneOrchestrator runs validate → categories → products for one authorized caller
type CloneOrchestrator interface {
	Authorize(ctx context.Context, creds Credentials) (*Principal, error)
	Run(ctx context.Context, creds Credentials, req CloneRequest, progress ProgressFunc) (*domain.CloneReport, error)
}

// OrchestratorDeps wires a CloneOrchestrator. Locker and Publisher are optional.
type OrchestratorDeps struct {
	Variant    string
	Strategy   AuthorizationStrategy
	Validator  AccountValidator
	Categories CategoryCloner
	Products   ProductCloner
	Locker     TargetLocker
	Publisher  ClonePublisher
	Timeout    time.Duration
	Logger     *zap.Logger
}

type cloneOrchestrator struct {
	variant    string
	strategy   AuthorizationStrategy
	validator  AccountValidator
	categories CategoryCloner
	products   ProductCloner
	locker     TargetLocker
	publisher  ClonePublisher
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewCloneOrchestrator creates a new instance of CloneOrchestrator
func NewCloneOrchestrator(deps OrchestratorDeps) CloneOrchestrator {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultCloneTimeout
	}
	if deps.Locker == nil {
		deps.Locker = nopLocker{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &cloneOrchestrator{
		variant:    deps.Variant,
		strategy:   deps.Strategy,
		validator:  deps.Validator,
		categories: deps.Categories,
		products:   deps.Products,
		locker:     deps.Locker,
		publisher:  deps.Publisher,
		timeout:    deps.Timeout,
		logger:     deps.Logger.Named("clone").With(zap.String("variant", deps.Variant)),
		now:        time.Now,
	}
}

func (o *cloneOrchestrator) Authorize(ctx context.Context, creds Credentials) (*Principal, error) {
	return o.strategy.Authorize(ctx, creds)
}

// Run executes one clone. On ErrQuotaExceeded the returned report carries the
// category phase outcome, which is not rolled back. On ErrTimeout the pipeline keeps
// running in the background and no report is returned.
func (o *cloneOrchestrator) Run(ctx context.Context, creds Credentials, req CloneRequest, progress ProgressFunc) (*domain.CloneReport, error) {
	principal, err := o.strategy.Authorize(ctx, creds)
	if err != nil {
		return nil, err
	}

	sourceID, targetID, opts, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With(
		zap.String("source_id", sourceID.String()),
		zap.String("target_id", targetID.String()),
		zap.String("strategy", string(opts.MergeStrategy)),
		zap.String("auth", principal.Method),
	)

	release, acquired, err := o.locker.Acquire(ctx, targetID)
	switch {
	case err != nil:
		logger.Warn("Clone lock unavailable, continuing without it", zap.Error(err))
		release = func() {}
	case !acquired:
		return nil, ErrCloneInProgress
	}

	reporter := newProgressReporter(progress)
	logger.Info("Clone started")

	type outcome struct {
		report *domain.CloneReport
		err    error
	}
	done := make(chan outcome, 1)

	// Detached from ctx: in-flight writes may finish after Run returns.
	go func() {
		defer release()
		report, err := o.pipeline(context.WithoutCancel(ctx), sourceID, targetID, opts, reporter)
		done <- outcome{report: report, err: err}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		reporter.close()
		if out.err != nil {
			logger.Warn("Clone failed", zap.Error(out.err))
			o.publish(ctx, domain.CloneEventFailed, sourceID, targetID, opts, out.report, out.err)
			return out.report, out.err
		}
		logger.Info("Clone finished",
			zap.Int("categories_cloned", out.report.CategoriesCloned),
			zap.Int("products_cloned", out.report.ProductsCloned),
			zap.Int("images_cloned", out.report.ImagesCloned),
			zap.Int("products_skipped", out.report.ProductsSkipped),
			zap.Int("errors", len(out.report.Errors)),
			zap.Bool("success", out.report.Success),
		)
		o.publish(ctx, domain.CloneEventCompleted, sourceID, targetID, opts, out.report, nil)
		return out.report, nil
	case <-timer.C:
		reporter.close()
		err := fmt.Errorf("%w after %s", ErrTimeout, o.timeout)
		logger.Error("Clone timed out, writes may still land", zap.Duration("timeout", o.timeout))
		o.publish(ctx, domain.CloneEventFailed, sourceID, targetID, opts, nil, err)
		return nil, err
	case <-ctx.Done():
		reporter.close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return nil, ctx.Err()
	}
}

func (o *cloneOrchestrator) pipeline(
	ctx context.Context,
	sourceID, targetID uuid.UUID,
	opts domain.CloneOptions,
	reporter *progressReporter,
) (*domain.CloneReport, error) {
	report := domain.NewCloneReport(sourceID, targetID, o.now())

	reporter.emit(0, 1, "Validating accounts", 0)
	pair, err := o.validator.Validate(ctx, sourceID, targetID)
	if err != nil {
		return nil, err
	}
	reporter.emit(1, 1, "Accounts validated", 10)

	if opts.CloneCategories {
		reporter.emit(0, 1, "Cloning categories", 10)
		result, err := o.categories.Clone(ctx, sourceID, targetID, opts.MergeStrategy)
		report.CategoriesCloned = result.Cloned
		report.AddErrors(result.Errors...)
		if err != nil {
			report.Finish(o.now())
			return report, err
		}
		reporter.emit(1, 1, fmt.Sprintf("%d categories cloned", result.Cloned), 30)
	}

	if opts.CloneProducts {
		reporter.emit(0, 0, "Cloning products", 40)
		result, err := o.products.Clone(ctx, sourceID, targetID, pair.ListingLimit, ProductOptions{
			Strategy:    opts.MergeStrategy,
			CopyImages:  opts.CopyImages,
			MaxProducts: opts.MaxProducts,
		}, func(done, total int, title string) {
			reporter.emit(done, total, fmt.Sprintf("Cloned %q", title), 40+50*done/total)
		})
		report.ProductsCloned = result.Cloned
		report.ProductsSkipped = result.Skipped
		report.ImagesCloned = result.ImagesCloned
		report.AddErrors(result.Errors...)
		if err != nil {
			report.Finish(o.now())
			return report, err
		}
	}

	report.Finish(o.now())
	reporter.emit(1, 1, "Clone finished", 100)
	return report, nil
}

func (o *cloneOrchestrator) publish(
	ctx context.Context,
	eventType string,
	sourceID, targetID uuid.UUID,
	opts domain.CloneOptions,
	report *domain.CloneReport,
	cloneErr error,
) {
	if o.publisher == nil {
		return
	}

	event := domain.CloneEvent{
		Type:       eventType,
		Variant:    o.variant,
		SourceID:   sourceID,
		TargetID:   targetID,
		Options:    opts,
		Report:     report,
		OccurredAt: o.now(),
	}
	if cloneErr != nil {
		event.Error = cloneErr.Error()
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.publisher.Publish(publishCtx, event); err != nil {
		o.logger.Warn("Failed to publish clone event", zap.Error(err), zap.String("type", eventType))
	}
}

func parseRequest(req CloneRequest) (uuid.UUID, uuid.UUID, domain.CloneOptions, error) {
	opts := req.Options
	if !opts.CloneCategories && !opts.CloneProducts {
		return uuid.Nil, uuid.Nil, opts, fmt.Errorf("%w: select categories, products or both", ErrInvalidRequest)
	}
	if opts.MergeStrategy == "" {
		opts.MergeStrategy = domain.MergeStrategyMerge
	}
	if !opts.MergeStrategy.Valid() {
		return uuid.Nil, uuid.Nil, opts, fmt.Errorf("%w: unknown merge strategy %q", ErrInvalidRequest, opts.MergeStrategy)
	}
	if opts.MaxProducts < 0 {
		return uuid.Nil, uuid.Nil, opts, fmt.Errorf("%w: maxProducts must not be negative", ErrInvalidRequest)
	}

	sourceID, err := uuid.Parse(req.SourceUserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, opts, fmt.Errorf("%w: malformed source account id", ErrInvalidRequest)
	}
	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, opts, fmt.Errorf("%w: malformed target account id", ErrInvalidRequest)
	}
	if sourceID == targetID {
		return uuid.Nil, uuid.Nil, opts, fmt.Errorf("%w: source and target must be different accounts", ErrInvalidRequest)
	}

	return sourceID, targetID, opts, nil
}

// progressReporter serialises callbacks, keeps percentages non-decreasing and drops
// notifications once Run has returned.
type progressReporter struct {
	mu     sync.Mutex
	fn     ProgressFunc
	last   int
	closed bool
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

func (p *progressReporter) emit(current, total int, message string, percentage int) {
	p.mu.Lock()
	if p.fn == nil || p.closed {
		p.mu.Unlock()
		return
	}
	if percentage < p.last {
		percentage = p.last
	}
	if percentage > 100 {
		percentage = 100
	}
	p.last = percentage
	fn := p.fn
	p.mu.Unlock()

	// Only the pipeline goroutine emits, so callbacks stay ordered without the lock.
	fn(domain.Progress{Current: current, Total: total, Message: message, Percentage: percentage})
}

func (p *progressReporter) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

type nopLocker struct{}

func (nopLocker) Acquire(context.Context, uuid.UUID) (func(), bool, error) {
	return func() {}, true, nil
}
