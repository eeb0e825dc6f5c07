package filters

import (
	"context"
	"sort"
	"strings"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

// Default deduplication parameters.
const (
	// DefaultDedupRatio is the token-set similarity (0-100) at or above
	// which two overlapping findings count as duplicates.
	DefaultDedupRatio = 85

	// DefaultDedupLineWindow is the maximum line distance for two
	// findings in the same file to count as overlapping.
	DefaultDedupLineWindow = 3
)

// DedupConfig configures the deduplication stage.
type DedupConfig struct {
	// Ratio is the fuzzy similarity threshold (0-100).
	Ratio int

	// LineWindow is the line-distance window for location overlap.
	LineWindow int
}

// DefaultDedupConfig returns the standard deduplication parameters.
func DefaultDedupConfig() DedupConfig {
	return DedupConfig{Ratio: DefaultDedupRatio, LineWindow: DefaultDedupLineWindow}
}

// Dedup collapses near-duplicate findings within a single batch.
// Cross-PR suppression is deliberately not handled here; that is the
// feedback stage's job, keeping this stage a cheap local check.
//
// Candidates are processed in a stable preference order (severity
// descending, then confidence descending, then first-seen) against an
// accumulator of already-kept findings, so each duplicate is measured
// only against a finding that definitely survives. Running the stage on
// its own output produces no further drops.
type Dedup struct {
	cfg DedupConfig
}

// NewDedup creates the deduplication stage.
func NewDedup(cfg DedupConfig) *Dedup {
	if cfg.Ratio <= 0 {
		cfg.Ratio = DefaultDedupRatio
	}
	if cfg.LineWindow <= 0 {
		cfg.LineWindow = DefaultDedupLineWindow
	}
	return &Dedup{cfg: cfg}
}

// Name identifies the stage.
func (d *Dedup) Name() string { return "dedup" }

// Apply collapses duplicates, keeping the preferred finding of each pair.
func (d *Dedup) Apply(_ context.Context, in []domain.Finding) Outcome {
	if len(in) < 2 {
		return passThrough(in)
	}

	ordered := make([]domain.Finding, len(in))
	copy(ordered, in)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Severity.Rank() != ordered[j].Severity.Rank() {
			return ordered[i].Severity.Rank() > ordered[j].Severity.Rank()
		}
		return ordered[i].Confidence > ordered[j].Confidence
	})

	out := Outcome{Kept: make([]domain.Finding, 0, len(ordered))}
	for _, cand := range ordered {
		if d.duplicateOfAny(cand, out.Kept) {
			out.drop(domain.ReasonDuplicate)
			continue
		}
		out.Kept = append(out.Kept, cand)
	}
	return out
}

func (d *Dedup) duplicateOfAny(cand domain.Finding, kept []domain.Finding) bool {
	for i := range kept {
		if d.locationsOverlap(cand, kept[i]) && d.similar(cand, kept[i]) {
			return true
		}
	}
	return false
}

func (d *Dedup) similar(a, b domain.Finding) bool {
	return TokenSetRatio(strings.ToLower(a.Description), strings.ToLower(b.Description)) >= d.cfg.Ratio
}

// locationsOverlap requires the same file; a file-level finding (nil line)
// overlaps anything in that file, otherwise the lines must fall within the
// configured window.
func (d *Dedup) locationsOverlap(a, b domain.Finding) bool {
	if a.FilePath != b.FilePath {
		return false
	}
	if a.LineNumber == nil || b.LineNumber == nil {
		return true
	}
	delta := *a.LineNumber - *b.LineNumber
	if delta < 0 {
		delta = -delta
	}
	return delta <= d.cfg.LineWindow
}
