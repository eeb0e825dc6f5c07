package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/filters"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
	"github.com/revloop-dev/revloop/internal/core/ports/driving"
	"github.com/revloop-dev/revloop/internal/logger"
)

// Ensure ReviewOrchestrator implements the interface.
var _ driving.ReviewService = (*ReviewOrchestrator)(nil)

const (
	// saveRetries is how many times a post-publication save is attempted.
	// The comment is already live at that point, so giving up means the
	// finding is invisible to future similarity queries.
	saveRetries = 3

	// saveRetryDelay is the initial backoff between save attempts. It
	// doubles on every retry.
	saveRetryDelay = time.Second
)

// ReviewOrchestrator runs candidate findings through the filter chain,
// publishes the survivors and persists them for future runs.
type ReviewOrchestrator struct {
	cfg       filters.ChainConfig
	store     driven.FindingStore
	publisher driven.ReviewPublisher
	embedder  driven.EmbeddingService
}

// NewReviewOrchestrator creates a review orchestrator. embedder may be
// nil, in which case the feedback stage degrades to pass-through and
// persisted findings carry no embedding.
func NewReviewOrchestrator(
	cfg filters.ChainConfig,
	store driven.FindingStore,
	publisher driven.ReviewPublisher,
	embedder driven.EmbeddingService,
) *ReviewOrchestrator {
	return &ReviewOrchestrator{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
		embedder:  embedder,
	}
}

// Review filters one candidate batch and publishes what survives.
//
// Invalid candidates are rejected at the boundary and counted in the
// stats rather than entering the chain. Publication failures for
// individual findings degrade to warnings; the run itself fails only on
// context cancellation.
func (o *ReviewOrchestrator) Review(ctx context.Context, req driving.ReviewRequest) (*driving.ReviewResult, error) {
	candidates, rejected := o.admit(req)

	chain := filters.NewChain(
		filters.NewConfidence(o.cfg.Confidence),
		filters.NewDedup(o.cfg.Dedup),
		filters.NewHallucination(o.cfg.Hallucination, req.FileContents),
		filters.NewFeedback(o.cfg.Feedback, o.embedder, o.store, req.Context.RepoScope),
	)

	survivors, stats := chain.Run(ctx, candidates)
	stats.TotalGenerated = len(req.Candidates)
	stats.TotalFiltered += rejected
	stats.AddReason(domain.ReasonInvalidCandidate, rejected)

	if req.DryRun {
		logger.Info("Dry run: %d of %d findings would be published", len(survivors), len(req.Candidates))
		return &driving.ReviewResult{Survivors: survivors, Stats: stats}, nil
	}

	published := make([]domain.Finding, 0, len(survivors))
	for i := range survivors {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		f := survivors[i]
		commentID, err := o.publisher.Publish(ctx, &f)
		if err != nil {
			stats.AddWarning(fmt.Sprintf("publish failed for finding at %s: %v", f.FilePath, err))
			logger.Warn("Publish failed for %s: %v", f.FilePath, err)
			continue
		}
		f.CommentID = &commentID

		o.persist(ctx, &f)
		published = append(published, f)
	}

	if err := o.store.RecordFilterStats(ctx, req.Context, stats); err != nil {
		logger.Warn("Failed to record filter stats: %v", err)
	}

	logger.Info("Published %d of %d findings for %s#%d",
		len(published), len(req.Candidates), req.Context.RepoScope, req.Context.PRNumber)
	return &driving.ReviewResult{Survivors: published, Stats: stats}, nil
}

// admit validates candidates and stamps identity and run context onto the
// ones entering the chain. Returns the admitted batch and the number of
// rejects.
func (o *ReviewOrchestrator) admit(req driving.ReviewRequest) ([]domain.Finding, int) {
	admitted := make([]domain.Finding, 0, len(req.Candidates))
	rejected := 0

	for _, f := range req.Candidates {
		if f.RepoScope == "" {
			f.RepoScope = req.Context.RepoScope
		}
		if f.PRNumber == 0 {
			f.PRNumber = req.Context.PRNumber
		}
		if err := f.Validate(); err != nil {
			logger.Debug("Rejecting candidate at %s: %v", f.FilePath, err)
			rejected++
			continue
		}
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = time.Now()
		}
		admitted = append(admitted, f)
	}

	return admitted, rejected
}

// persist saves a published finding, retrying with backoff. The comment
// is already visible externally, so a save failure is logged loudly but
// does not fail the run.
func (o *ReviewOrchestrator) persist(ctx context.Context, f *domain.Finding) {
	if f.Embedding == nil && o.embedder != nil {
		emb, err := o.embedder.Embed(ctx, f.Description)
		if err != nil {
			logger.Warn("Embed failed for finding %s, saving without embedding: %v", f.ID, err)
		} else {
			f.Embedding = emb
		}
	}

	delay := saveRetryDelay
	var err error
	for attempt := 1; attempt <= saveRetries; attempt++ {
		if err = o.store.SaveFinding(ctx, f); err == nil {
			return
		}
		if attempt < saveRetries {
			logger.Debug("Save attempt %d for finding %s failed: %v", attempt, f.ID, err)
			select {
			case <-ctx.Done():
				logger.Error("Finding %s published as comment %d but not persisted: %v", f.ID, *f.CommentID, ctx.Err())
				return
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	logger.Error("Finding %s published as comment %d but not persisted after %d attempts: %v",
		f.ID, *f.CommentID, saveRetries, err)
}
