package filters

import (
	"context"
	"strings"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

// Default evidence verification parameters.
const (
	// DefaultEvidencePenalty is the confidence multiplier applied in
	// lenient mode when evidence cannot be verified.
	DefaultEvidencePenalty = 0.5

	// DefaultEvidenceMinConfidence is the floor below which a penalised
	// finding is dropped even in lenient mode.
	DefaultEvidenceMinConfidence = 0.3

	// DefaultEvidenceLineWindow is how many lines around the claimed
	// line the snippet is searched for before falling back to the whole
	// file.
	DefaultEvidenceLineWindow = 5
)

// HallucinationConfig configures evidence verification.
type HallucinationConfig struct {
	// Strict drops unverified findings outright instead of penalising.
	Strict bool

	// Penalty is the confidence multiplier for unverified findings in
	// lenient mode.
	Penalty float64

	// MinConfidence is the post-penalty floor below which a finding is
	// dropped even in lenient mode.
	MinConfidence float64

	// LineWindow is the search window around the claimed line.
	LineWindow int
}

// DefaultHallucinationConfig returns lenient-with-penalty verification.
func DefaultHallucinationConfig() HallucinationConfig {
	return HallucinationConfig{
		Strict:        false,
		Penalty:       DefaultEvidencePenalty,
		MinConfidence: DefaultEvidenceMinConfidence,
		LineWindow:    DefaultEvidenceLineWindow,
	}
}

// Hallucination verifies that a finding's claimed evidence actually exists
// in the source it claims to describe. The stage never fetches content
// itself; the caller supplies the current content of every changed file.
//
// A finding without a snippet or line number is legitimately file-level:
// verification is skipped and the finding passes unchanged. The same
// applies when the caller did not supply the file's content.
type Hallucination struct {
	cfg   HallucinationConfig
	files map[string]string
}

// NewHallucination creates the evidence verification stage for one batch.
func NewHallucination(cfg HallucinationConfig, files map[string]string) *Hallucination {
	if cfg.Penalty <= 0 || cfg.Penalty >= 1 {
		cfg.Penalty = DefaultEvidencePenalty
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultEvidenceMinConfidence
	}
	if cfg.LineWindow <= 0 {
		cfg.LineWindow = DefaultEvidenceLineWindow
	}
	return &Hallucination{cfg: cfg, files: files}
}

// Name identifies the stage.
func (h *Hallucination) Name() string { return "hallucination" }

// Apply verifies each finding's evidence against the supplied contents.
func (h *Hallucination) Apply(_ context.Context, in []domain.Finding) Outcome {
	out := Outcome{Kept: make([]domain.Finding, 0, len(in))}

	for _, f := range in {
		content, ok := h.files[f.FilePath]
		if !ok || f.LineNumber == nil || strings.TrimSpace(f.EvidenceSnippet) == "" {
			out.Kept = append(out.Kept, f)
			continue
		}

		if h.verified(content, *f.LineNumber, f.EvidenceSnippet) {
			out.Kept = append(out.Kept, f)
			continue
		}

		if h.cfg.Strict {
			out.drop(domain.ReasonUnverifiedEvidence)
			continue
		}

		f.Confidence *= h.cfg.Penalty
		if f.Confidence < h.cfg.MinConfidence {
			out.drop(domain.ReasonUnverifiedEvidence)
			continue
		}
		out.Kept = append(out.Kept, f)
	}
	return out
}

// verified checks that line is within bounds and the snippet appears near
// it. A snippet found elsewhere in the file still verifies: the diff the
// analyzer saw may be offset from the content we were handed.
func (h *Hallucination) verified(content string, line int, snippet string) bool {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return false
	}

	snippet = strings.TrimSpace(snippet)

	lo := line - 1 - h.cfg.LineWindow
	if lo < 0 {
		lo = 0
	}
	hi := line + h.cfg.LineWindow
	if hi > len(lines) {
		hi = len(lines)
	}
	window := strings.Join(lines[lo:hi], "\n")
	if strings.Contains(window, snippet) {
		return true
	}
	return strings.Contains(content, snippet)
}
