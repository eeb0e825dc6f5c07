package driven

import (
	"context"
	"time"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

// FindingStore is the persistent, repository-scoped, append-only log of
// published findings. Findings are inserted once, at the moment of
// successful external publication, and never updated afterwards; reactions
// accumulate against them indefinitely.
type FindingStore interface {
	// SaveFinding appends a published finding, including its embedding.
	SaveFinding(ctx context.Context, f *domain.Finding) error

	// GetFinding retrieves a finding by ID.
	// Returns domain.ErrNotFound if absent.
	GetFinding(ctx context.Context, id string) (*domain.Finding, error)

	// GetFindingByCommentID resolves a finding from its external comment
	// identifier. Returns domain.ErrNotFound if absent.
	GetFindingByCommentID(ctx context.Context, commentID int64) (*domain.Finding, error)

	// ListPublishedSince returns findings for a repository scope that
	// were published at or after the given time. Used by reaction sync.
	ListPublishedSince(ctx context.Context, repoScope string, since time.Time) ([]domain.Finding, error)

	// QuerySimilar returns up to k prior findings within repoScope whose
	// cosine similarity to vec is at least threshold, ordered by
	// descending similarity, each annotated with its aggregated positive
	// and negative reaction counts. Findings from other repository scopes
	// must never be returned, regardless of similarity.
	QuerySimilar(ctx context.Context, vec []float32, repoScope string, threshold float64, k int) ([]domain.SimilarFinding, error)

	// RecordFilterStats appends a per-run stats row for observability.
	RecordFilterStats(ctx context.Context, rc domain.ReviewContext, stats domain.FilterStats) error
}

// ReactionLedger is the persistent mapping from (finding, reactor, kind)
// to a reaction. Uniqueness of the triple is enforced by the storage
// layer, not by application-level locking.
type ReactionLedger interface {
	// Record inserts a reaction if no identical (finding, reactor, kind)
	// triple exists. Returns false if the reaction was already present;
	// a duplicate is an expected no-op, not an error.
	Record(ctx context.Context, r domain.Reaction) (inserted bool, err error)

	// Summary aggregates reactions for a single finding.
	Summary(ctx context.Context, findingID string) (*domain.FeedbackSummary, error)
}
