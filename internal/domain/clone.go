package domain

import (
	"time"

	"github.com/google/uuid"
)

// MergeStrategy decides what happens to existing target data during a clone
type MergeStrategy string

const (
	// MergeStrategyMerge keeps target rows and adds the missing ones
	MergeStrategyMerge MergeStrategy = "merge"
	// MergeStrategyReplace deletes target rows before inserting clones
	MergeStrategyReplace MergeStrategy = "replace"
)

// Valid reports whether s is a known strategy
func (s MergeStrategy) Valid() bool {
	return s == MergeStrategyMerge || s == MergeStrategyReplace
}

// DefaultMaxProducts bounds the source read when neither the request nor the
// configuration sets a limit
const DefaultMaxProducts = 1000

// CloneOptions selects the phases and policies of a clone run
type CloneOptions struct {
	CloneCategories bool          `json:"cloneCategories"`
	CloneProducts   bool          `json:"cloneProducts"`
	MergeStrategy   MergeStrategy `json:"mergeStrategy"`
	CopyImages      bool          `json:"copyImages"`
	MaxProducts     int           `json:"maxProducts,omitempty"`
}

// CloneReport aggregates the outcome of a single clone run. It is never persisted.
type CloneReport struct {
	SourceID         uuid.UUID `json:"source_id"`
	TargetID         uuid.UUID `json:"target_id"`
	CategoriesCloned int       `json:"categories_cloned"`
	ProductsCloned   int       `json:"products_cloned"`
	ImagesCloned     int       `json:"images_cloned"`
	ProductsSkipped  int       `json:"products_skipped"`
	Errors           []string  `json:"errors"`
	Success          bool      `json:"success"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	DurationMillis   int64     `json:"duration_ms"`
}

// NewCloneReport starts an empty report
func NewCloneReport(sourceID, targetID uuid.UUID, startedAt time.Time) *CloneReport {
	return &CloneReport{
		SourceID:  sourceID,
		TargetID:  targetID,
		Errors:    []string{},
		StartedAt: startedAt,
	}
}

// AddErrors appends item errors to the report
func (r *CloneReport) AddErrors(errs ...string) {
	r.Errors = append(r.Errors, errs...)
}

// Finish stamps the report and derives Success: at least one category or product was cloned,
// regardless of item errors.
func (r *CloneReport) Finish(finishedAt time.Time) {
	r.FinishedAt = finishedAt
	r.DurationMillis = finishedAt.Sub(r.StartedAt).Milliseconds()
	r.Success = r.CategoriesCloned+r.ProductsCloned > 0
}

// Progress is one step notification of a running clone
type Progress struct {
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Message    string `json:"message"`
	Percentage int    `json:"percentage"`
}

// Clone event types
const (
	CloneEventCompleted = "clone.completed"
	CloneEventFailed    = "clone.failed"
)

// CloneEvent is published after every clone run
type CloneEvent struct {
	Type       string       `json:"type"`
	Variant    string       `json:"variant"`
	SourceID   uuid.UUID    `json:"source_id"`
	TargetID   uuid.UUID    `json:"target_id"`
	Options    CloneOptions `json:"options"`
	Report     *CloneReport `json:"report,omitempty"`
	Error      string       `json:"error,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
