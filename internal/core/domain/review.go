package domain

// Filter reasons recorded in FilterStats. Stages record one reason per
// dropped or adjusted finding so runs can be audited after the fact.
const (
	ReasonInvalidCandidate   = "invalid_candidate"
	ReasonLowConfidence      = "low_confidence"
	ReasonDuplicate          = "duplicate"
	ReasonUnverifiedEvidence = "unverified_evidence"
	ReasonDownvotedSimilar   = "downvoted_similar"
	ReasonBoostedConfidence  = "boosted_confidence"
)

// ReviewContext identifies the review run a batch of candidates belongs to.
type ReviewContext struct {
	// RepoScope is the owning repository ("owner/name").
	RepoScope string

	// PRNumber is the pull request under review.
	PRNumber int
}

// FilterStats summarises one pass through the filter chain.
type FilterStats struct {
	// TotalGenerated is the number of candidates entering the chain.
	TotalGenerated int

	// TotalFiltered is the number of candidates dropped by any stage.
	TotalFiltered int

	// TotalBoosted is the number of findings whose confidence was raised.
	TotalBoosted int

	// Reasons breaks down drops and adjustments by reason string.
	Reasons map[string]int

	// Warnings holds fail-open degradations that occurred during the run.
	// A warning means a stage passed candidates through unfiltered rather
	// than aborting the chain.
	Warnings []string
}

// NewFilterStats returns stats ready for accumulation.
func NewFilterStats(generated int) FilterStats {
	return FilterStats{
		TotalGenerated: generated,
		Reasons:        make(map[string]int),
	}
}

// AddReason records n occurrences of a filter reason.
func (s *FilterStats) AddReason(reason string, n int) {
	if n == 0 {
		return
	}
	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	s.Reasons[reason] += n
}

// AddWarning records a fail-open degradation.
func (s *FilterStats) AddWarning(warning string) {
	s.Warnings = append(s.Warnings, warning)
}

// SimilarFinding is one result from a similarity query: a previously
// published finding together with its similarity to the probe vector and
// its aggregated reaction counts.
type SimilarFinding struct {
	// Finding is the matched prior finding.
	Finding Finding

	// Similarity is the cosine similarity to the probe vector.
	Similarity float64

	// Positive is the matched finding's distinct positive reactor count.
	Positive int

	// Negative is the matched finding's distinct negative reactor count.
	Negative int
}
