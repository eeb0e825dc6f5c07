package domain

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the ordered severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns a numeric rank for ordering (higher = more severe).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// IsValid returns true if the severity is a recognised value.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// Category classifies a finding for reporting. The set is open: analyzers
// may emit categories beyond the ones named here.
type Category string

const (
	CategorySecurity    Category = "Security"
	CategoryLogicError  Category = "Logic Error"
	CategoryPerformance Category = "Performance"
	CategoryStyle       Category = "Style"
)

// Finding is a single reviewer observation about a piece of code.
// A Finding flows through the filter chain in memory and is persisted only
// after successful external publication.
type Finding struct {
	// ID is the unique identifier, assigned at creation.
	ID string

	// RepoScope identifies the owning repository ("owner/name").
	// All similarity queries are partitioned by this value.
	RepoScope string

	// PRNumber is the pull request the finding was raised against.
	PRNumber int

	// FilePath is the file the finding refers to.
	FilePath string

	// LineNumber is the claimed line; nil for file-level findings.
	LineNumber *int

	// Description is the free-text body. It is the normative input to
	// both embedding and deduplication similarity.
	Description string

	// Category classifies the finding for reporting.
	Category Category

	// Severity is the ordered severity level.
	Severity Severity

	// Confidence is the analyzer's self-reported certainty in [0, 1].
	// The feedback stage may rescale it, capped at 1.0.
	Confidence float64

	// EvidenceSnippet is the exact source substring the finding claims
	// to reference; empty for file-level findings.
	EvidenceSnippet string

	// Embedding is the vector fingerprint of Description, computed once
	// at publish time and never recomputed afterwards.
	Embedding []float32

	// CommentID is the externally visible comment identifier, set after
	// successful publication; nil until then.
	CommentID *int64

	// CreatedAt is when the finding was generated.
	CreatedAt time.Time
}

// Validate checks that a candidate finding is well-formed enough to enter
// the filter chain. Invalid candidates are rejected at the boundary, not
// discovered mid-pipeline.
func (f *Finding) Validate() error {
	if strings.TrimSpace(f.Description) == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidInput)
	}
	if strings.TrimSpace(f.RepoScope) == "" {
		return fmt.Errorf("%w: empty repository scope", ErrInvalidInput)
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, f.Severity)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", ErrInvalidInput, f.Confidence)
	}
	if f.LineNumber != nil && *f.LineNumber < 1 {
		return fmt.Errorf("%w: line number %d", ErrInvalidInput, *f.LineNumber)
	}
	return nil
}

// Published reports whether the finding has an external comment attached.
func (f *Finding) Published() bool {
	return f.CommentID != nil
}
