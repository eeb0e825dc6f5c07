// Package memory provides in-memory implementations of the storage ports,
// used in tests and for ephemeral dry runs where nothing should persist.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
	"github.com/revloop-dev/revloop/internal/vector"
)

// Ensure FindingStore implements the interface.
var _ driven.FindingStore = (*FindingStore)(nil)

// FindingStore is an in-memory implementation of driven.FindingStore.
// Similarity queries are an exact linear scan over the repository scope,
// which matches the persistent implementation's semantics.
type FindingStore struct {
	mu       sync.RWMutex
	findings map[string]domain.Finding
	stats    []statsRow
	ledger   *ReactionLedger
}

type statsRow struct {
	rc    domain.ReviewContext
	stats domain.FilterStats
}

// NewFindingStore creates an in-memory finding store whose similarity
// results are annotated from the given ledger. The ledger may be nil, in
// which case all reaction counts are zero.
func NewFindingStore(ledger *ReactionLedger) *FindingStore {
	return &FindingStore{
		findings: make(map[string]domain.Finding),
		ledger:   ledger,
	}
}

// SaveFinding appends a published finding.
func (s *FindingStore) SaveFinding(_ context.Context, f *domain.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings[f.ID] = *f
	return nil
}

// GetFinding retrieves a finding by ID.
func (s *FindingStore) GetFinding(_ context.Context, id string) (*domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.findings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// GetFindingByCommentID resolves a finding from its comment identifier.
func (s *FindingStore) GetFindingByCommentID(_ context.Context, commentID int64) (*domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.findings {
		f := s.findings[id]
		if f.CommentID != nil && *f.CommentID == commentID {
			return &f, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListPublishedSince returns scope findings published at or after since.
func (s *FindingStore) ListPublishedSince(_ context.Context, repoScope string, since time.Time) ([]domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Finding
	for id := range s.findings {
		f := s.findings[id]
		if f.RepoScope == repoScope && f.Published() && !f.CreatedAt.Before(since) {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// QuerySimilar scans the repository scope for findings whose embedding is
// within threshold of vec, annotated with their reaction counts.
func (s *FindingStore) QuerySimilar(ctx context.Context, vec []float32, repoScope string, threshold float64, k int) ([]domain.SimilarFinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.SimilarFinding
	for id := range s.findings {
		f := s.findings[id]
		if f.RepoScope != repoScope || f.Embedding == nil {
			continue
		}
		sim := vector.Cosine(vec, f.Embedding)
		if sim < threshold {
			continue
		}
		match := domain.SimilarFinding{Finding: f, Similarity: sim}
		if s.ledger != nil {
			summary, err := s.ledger.Summary(ctx, f.ID)
			if err != nil {
				return nil, err
			}
			match.Positive = summary.Positive
			match.Negative = summary.Negative
		}
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// RecordFilterStats appends a per-run stats row.
func (s *FindingStore) RecordFilterStats(_ context.Context, rc domain.ReviewContext, stats domain.FilterStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, statsRow{rc: rc, stats: stats})
	return nil
}

// StatsCount reports how many stats rows were recorded. Test helper.
func (s *FindingStore) StatsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stats)
}
