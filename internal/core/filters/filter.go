// Package filters implements the finding filter chain: an ordered pipeline
// of stages that each consume and produce a list of candidate findings.
//
// The fixed order is Confidence, Dedup, Hallucination, Feedback. Cheap
// purely-local checks run first so the stages that need file content or
// storage round trips see as few candidates as possible.
//
// Every stage is total: it never fails a syntactically valid finding with
// an error. Internal problems degrade to passing the candidate through
// unfiltered and are surfaced as warnings in the run's FilterStats.
package filters

import (
	"context"
	"fmt"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/logger"
)

// Stage is one step of the filter chain. Apply receives the survivors of
// the previous stage and returns its outcome; it may drop findings or
// adjust their confidence, nothing else.
type Stage interface {
	// Name identifies the stage in logs and warnings.
	Name() string

	// Apply filters one batch.
	Apply(ctx context.Context, in []domain.Finding) Outcome
}

// Outcome is the result of one stage over one batch.
type Outcome struct {
	// Kept are the findings that survived the stage.
	Kept []domain.Finding

	// Dropped counts removed findings by reason.
	Dropped map[string]int

	// Boosted is the number of findings whose confidence was raised.
	Boosted int

	// Warnings are fail-open degradations that occurred in the stage.
	Warnings []string
}

// drop records one dropped finding.
func (o *Outcome) drop(reason string) {
	if o.Dropped == nil {
		o.Dropped = make(map[string]int)
	}
	o.Dropped[reason]++
}

// passThrough returns an outcome that keeps the whole batch unchanged.
func passThrough(in []domain.Finding) Outcome {
	return Outcome{Kept: in}
}

// Chain runs stages in order over a candidate batch.
type Chain struct {
	stages []Stage
}

// NewChain creates a chain over the given stages, executed in order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Len returns the number of stages in the chain.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Run applies every stage in order and accumulates FilterStats. A panic
// inside a stage is converted into pass-through for that stage plus a
// warning; the chain itself never fails.
func (c *Chain) Run(ctx context.Context, candidates []domain.Finding) ([]domain.Finding, domain.FilterStats) {
	stats := domain.NewFilterStats(len(candidates))
	current := candidates

	logger.Section("Filter Chain")
	logger.Debug("Starting with %d candidates", len(current))

	for _, stage := range c.stages {
		out := c.applyStage(ctx, stage, current)

		for reason, n := range out.Dropped {
			stats.AddReason(reason, n)
			stats.TotalFiltered += n
		}
		stats.TotalBoosted += out.Boosted
		if out.Boosted > 0 {
			stats.AddReason(domain.ReasonBoostedConfidence, out.Boosted)
		}
		for _, w := range out.Warnings {
			stats.AddWarning(fmt.Sprintf("%s: %s", stage.Name(), w))
			logger.Warn("%s: %s", stage.Name(), w)
		}

		if len(out.Kept) < len(current) {
			logger.Debug("%s: %d -> %d findings", stage.Name(), len(current), len(out.Kept))
		}
		current = out.Kept
	}

	logger.Debug("Ended with %d findings", len(current))
	return current, stats
}

// applyStage runs one stage, recovering panics into pass-through.
func (c *Chain) applyStage(ctx context.Context, stage Stage, in []domain.Finding) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = passThrough(in)
			out.Warnings = append(out.Warnings, fmt.Sprintf("recovered panic, passing %d findings through: %v", len(in), r))
		}
	}()
	return stage.Apply(ctx, in)
}
