package filters

import (
	"context"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

// Default confidence thresholds. Security findings demand more certainty
// than style nits because an unfounded security claim costs reviewers far
// more attention.
const (
	DefaultConfidenceThreshold  = 0.5
	SecurityConfidenceThreshold = 0.7
	StyleConfidenceThreshold    = 0.4
)

// ConfidenceConfig holds per-category confidence thresholds.
type ConfidenceConfig struct {
	// Default applies to categories without an explicit entry.
	Default float64

	// PerCategory overrides the default for specific categories.
	PerCategory map[domain.Category]float64
}

// DefaultConfidenceConfig returns the standard thresholds.
func DefaultConfidenceConfig() ConfidenceConfig {
	return ConfidenceConfig{
		Default: DefaultConfidenceThreshold,
		PerCategory: map[domain.Category]float64{
			domain.CategorySecurity: SecurityConfidenceThreshold,
			domain.CategoryStyle:    StyleConfidenceThreshold,
		},
	}
}

// Confidence drops findings whose confidence is strictly below the
// threshold for their category. Pure, stateless, deterministic.
type Confidence struct {
	cfg ConfidenceConfig
}

// NewConfidence creates the confidence stage.
func NewConfidence(cfg ConfidenceConfig) *Confidence {
	if cfg.Default <= 0 {
		cfg.Default = DefaultConfidenceThreshold
	}
	return &Confidence{cfg: cfg}
}

// Name identifies the stage.
func (c *Confidence) Name() string { return "confidence" }

// Threshold returns the effective threshold for a category.
func (c *Confidence) Threshold(cat domain.Category) float64 {
	if t, ok := c.cfg.PerCategory[cat]; ok {
		return t
	}
	return c.cfg.Default
}

// Apply filters the batch. A finding at exactly the threshold survives.
func (c *Confidence) Apply(_ context.Context, in []domain.Finding) Outcome {
	out := Outcome{Kept: make([]domain.Finding, 0, len(in))}

	for _, f := range in {
		if f.Confidence < c.Threshold(f.Category) {
			out.drop(domain.ReasonLowConfidence)
			continue
		}
		out.Kept = append(out.Kept, f)
	}
	return out
}
