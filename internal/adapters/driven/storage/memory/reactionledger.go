package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
)

// Ensure ReactionLedger implements the interface.
var _ driven.ReactionLedger = (*ReactionLedger)(nil)

// ReactionLedger is an in-memory implementation of driven.ReactionLedger.
// Uniqueness of the (finding, reactor, kind) triple is enforced under the
// same lock as the insert, mirroring the database constraint.
type ReactionLedger struct {
	mu        sync.RWMutex
	reactions map[string][]domain.Reaction
}

// NewReactionLedger creates an in-memory reaction ledger.
func NewReactionLedger() *ReactionLedger {
	return &ReactionLedger{reactions: make(map[string][]domain.Reaction)}
}

// Record inserts a reaction unless the identical triple already exists.
func (l *ReactionLedger) Record(_ context.Context, r domain.Reaction) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.reactions[r.FindingID] {
		if existing.Reactor == r.Reactor && existing.Kind == r.Kind {
			return false, nil
		}
	}
	l.reactions[r.FindingID] = append(l.reactions[r.FindingID], r)
	return true, nil
}

// Summary aggregates reactions for a single finding.
func (l *ReactionLedger) Summary(_ context.Context, findingID string) (*domain.FeedbackSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := &domain.FeedbackSummary{}
	rs := l.reactions[findingID]
	for _, r := range rs {
		switch r.Kind {
		case domain.ReactionPositive:
			summary.Positive++
		case domain.ReactionNegative:
			summary.Negative++
		}
		if r.Explanation != "" {
			summary.Explanations = append(summary.Explanations, domain.ExplanationNote{
				Reactor:   r.Reactor,
				Text:      r.Explanation,
				Sentiment: r.Kind,
			})
		}
	}
	sort.Slice(summary.Explanations, func(i, j int) bool {
		return summary.Explanations[i].Reactor < summary.Explanations[j].Reactor
	})
	return summary, nil
}
