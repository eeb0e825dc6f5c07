package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
	"github.com/revloop-dev/revloop/internal/core/ports/driving"
	"github.com/revloop-dev/revloop/internal/logger"
)

// Ensure FeedbackManager implements the interface.
var _ driving.FeedbackService = (*FeedbackManager)(nil)

// FeedbackManager records reactions against published findings and pulls
// fresh reactions from the platform on demand.
type FeedbackManager struct {
	store     driven.FindingStore
	ledger    driven.ReactionLedger
	reactions driven.ReactionSource
}

// NewFeedbackManager creates a feedback manager. reactions may be nil if
// platform sync is not configured; RecordReaction and FindingFeedback
// still work.
func NewFeedbackManager(store driven.FindingStore, ledger driven.ReactionLedger, reactions driven.ReactionSource) *FeedbackManager {
	return &FeedbackManager{
		store:     store,
		ledger:    ledger,
		reactions: reactions,
	}
}

// RecordReaction records one identity's reaction on a finding. When kind
// is empty and an explanation is present, the polarity is inferred from
// the explanation text.
func (m *FeedbackManager) RecordReaction(ctx context.Context, findingID, reactor string, kind domain.ReactionKind, explanation string) (bool, error) {
	if _, err := m.store.GetFinding(ctx, findingID); err != nil {
		return false, fmt.Errorf("get finding: %w", err)
	}

	if kind == "" && explanation != "" {
		kind = inferSentiment(explanation)
	}

	r := domain.Reaction{
		FindingID:   findingID,
		Reactor:     reactor,
		Kind:        kind,
		Explanation: explanation,
		CreatedAt:   time.Now(),
	}
	if err := r.Validate(); err != nil {
		return false, err
	}
	r.TruncateExplanation()

	inserted, err := m.ledger.Record(ctx, r)
	if err != nil {
		return false, fmt.Errorf("record reaction: %w", err)
	}
	return inserted, nil
}

// SyncReactions pulls reactions from the platform for findings published
// in repoScope at or after since, and records the new ones. A comment
// whose reactions cannot be listed is skipped with a log line; one stale
// or deleted comment must not abort the whole sweep.
func (m *FeedbackManager) SyncReactions(ctx context.Context, repoScope string, since time.Time) (int, error) {
	if m.reactions == nil {
		return 0, fmt.Errorf("%w: no reaction source configured", domain.ErrInvalidInput)
	}

	findings, err := m.store.ListPublishedSince(ctx, repoScope, since)
	if err != nil {
		return 0, fmt.Errorf("list published findings: %w", err)
	}

	logger.Section("Reaction Sync")
	logger.Debug("Sweeping %d findings in %s", len(findings), repoScope)

	recorded := 0
	for i := range findings {
		f := &findings[i]
		if !f.Published() {
			continue
		}

		select {
		case <-ctx.Done():
			return recorded, ctx.Err()
		default:
		}

		platformReactions, err := m.reactions.ListReactions(ctx, repoScope, *f.CommentID)
		if err != nil {
			logger.Warn("Skipping comment %d: %v", *f.CommentID, err)
			continue
		}

		for _, pr := range platformReactions {
			if pr.Reactor == "" {
				continue
			}
			r := domain.Reaction{
				FindingID: f.ID,
				Reactor:   pr.Reactor,
				Kind:      domain.NormalizeGitHubReaction(pr.Content),
				CreatedAt: time.Now(),
			}
			inserted, err := m.ledger.Record(ctx, r)
			if err != nil {
				logger.Warn("Failed to record reaction on finding %s: %v", f.ID, err)
				continue
			}
			if inserted {
				recorded++
			}
		}
	}

	logger.Info("Recorded %d new reactions", recorded)
	return recorded, nil
}

// FindingFeedback aggregates the recorded reactions for one finding.
func (m *FeedbackManager) FindingFeedback(ctx context.Context, findingID string) (*domain.FeedbackSummary, error) {
	if _, err := m.store.GetFinding(ctx, findingID); err != nil {
		return nil, fmt.Errorf("get finding: %w", err)
	}
	return m.ledger.Summary(ctx, findingID)
}

// Phrases checked, in order, when inferring polarity from written
// feedback. Disagreement phrases are matched first because replies like
// "thanks, but this is intentional" lead with politeness.
var (
	negativePhrases = []string{
		"not a bug",
		"false positive",
		"intentional",
		"by design",
		"working as intended",
		"wont fix",
		"won't fix",
		"not an issue",
		"incorrect",
		"wrong",
		"disagree",
	}
	positivePhrases = []string{
		"good catch",
		"nice catch",
		"great find",
		"nice find",
		"good point",
		"will fix",
		"fixed",
		"thanks",
		"thank you",
		"agreed",
		"you're right",
		"youre right",
	}
)

// inferSentiment derives a reaction polarity from explanation text.
// Ambiguous text defaults to negative: a maintainer who bothered to write
// a reply without clear agreement is more likely pushing back.
func inferSentiment(explanation string) domain.ReactionKind {
	text := strings.ToLower(explanation)

	for _, p := range negativePhrases {
		if strings.Contains(text, p) {
			return domain.ReactionNegative
		}
	}
	for _, p := range positivePhrases {
		if strings.Contains(text, p) {
			return domain.ReactionPositive
		}
	}
	return domain.ReactionNegative
}
