package filters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

// recordingStage notes the batch it saw and applies a canned outcome.
type recordingStage struct {
	name  string
	seen  []domain.Finding
	apply func(in []domain.Finding) Outcome
}

func (r *recordingStage) Name() string { return r.name }

func (r *recordingStage) Apply(_ context.Context, in []domain.Finding) Outcome {
	r.seen = in
	if r.apply == nil {
		return passThrough(in)
	}
	return r.apply(in)
}

type panickingStage struct{}

func (panickingStage) Name() string { return "boom" }

func (panickingStage) Apply(_ context.Context, _ []domain.Finding) Outcome {
	panic("stage blew up")
}

func TestChain_RunsStagesInOrder(t *testing.T) {
	dropFirst := &recordingStage{name: "first", apply: func(in []domain.Finding) Outcome {
		out := Outcome{Kept: in[1:]}
		out.drop("first_reason")
		return out
	}}
	second := &recordingStage{name: "second"}

	chain := NewChain(dropFirst, second)
	in := []domain.Finding{
		candidate("finding one", domain.CategoryLogicError, domain.SeverityHigh, 0.9),
		candidate("finding two", domain.CategoryLogicError, domain.SeverityHigh, 0.9),
	}

	kept, stats := chain.Run(context.Background(), in)

	require.Len(t, kept, 1)
	assert.Len(t, second.seen, 1, "second stage must see the first stage's survivors")
	assert.Equal(t, 2, stats.TotalGenerated)
	assert.Equal(t, 1, stats.TotalFiltered)
	assert.Equal(t, 1, stats.Reasons["first_reason"])
}

func TestChain_AccumulatesStats(t *testing.T) {
	dropper := &recordingStage{name: "dropper", apply: func(in []domain.Finding) Outcome {
		out := Outcome{Kept: in[1:]}
		out.drop(domain.ReasonLowConfidence)
		return out
	}}
	booster := &recordingStage{name: "booster", apply: func(in []domain.Finding) Outcome {
		return Outcome{Kept: in, Boosted: 1, Warnings: []string{"index slow"}}
	}}

	chain := NewChain(dropper, booster)
	in := []domain.Finding{
		candidate("finding one", domain.CategoryLogicError, domain.SeverityHigh, 0.9),
		candidate("finding two", domain.CategoryLogicError, domain.SeverityHigh, 0.9),
	}

	kept, stats := chain.Run(context.Background(), in)

	assert.Len(t, kept, 1)
	assert.Equal(t, 1, stats.TotalFiltered)
	assert.Equal(t, 1, stats.TotalBoosted)
	assert.Equal(t, 1, stats.Reasons[domain.ReasonBoostedConfidence])
	require.Len(t, stats.Warnings, 1)
	assert.Equal(t, "booster: index slow", stats.Warnings[0])
}

// TestChain_PanicFailsOpen tests that a stage panic costs a warning, not
// the batch.
func TestChain_PanicFailsOpen(t *testing.T) {
	after := &recordingStage{name: "after"}
	chain := NewChain(panickingStage{}, after)

	in := []domain.Finding{
		candidate("finding one", domain.CategoryLogicError, domain.SeverityHigh, 0.9),
	}
	kept, stats := chain.Run(context.Background(), in)

	assert.Len(t, kept, 1)
	assert.Len(t, after.seen, 1)
	require.Len(t, stats.Warnings, 1)
	assert.Contains(t, stats.Warnings[0], "boom:")
}

func TestChain_EmptyChainPassesThrough(t *testing.T) {
	chain := NewChain()
	in := []domain.Finding{
		candidate("finding one", domain.CategoryLogicError, domain.SeverityHigh, 0.9),
	}

	kept, stats := chain.Run(context.Background(), in)

	assert.Equal(t, in, kept)
	assert.Equal(t, 1, stats.TotalGenerated)
	assert.Zero(t, stats.TotalFiltered)
}

// TestChain_FullPipeline runs the four real stages together over a batch
// exercising every stage's decision.
func TestChain_FullPipeline(t *testing.T) {
	store := &stubIndex{matches: priors([2]int{0, 3})}
	embedder := &stubEmbedder{vec: []float32{1, 0, 0}}
	cfg := DefaultChainConfig()

	chain := NewChain(
		NewConfidence(cfg.Confidence),
		NewDedup(cfg.Dedup),
		NewHallucination(cfg.Hallucination, handlerFiles()),
		NewFeedback(cfg.Feedback, embedder, store, "octocat/hello-world"),
	)

	in := []domain.Finding{
		// Below the default threshold, dies at confidence.
		candidate("vague speculation about performance", domain.CategoryPerformance, domain.SeverityLow, 0.3),
		// Duplicate pair, lower confidence dies at dedup.
		at(candidate("possible nil pointer dereference in request handler", domain.CategoryLogicError, domain.SeverityHigh, 0.8), 10),
		at(candidate("nil pointer dereference possible in request handler", domain.CategoryLogicError, domain.SeverityHigh, 0.9), 11),
	}

	kept, stats := chain.Run(context.Background(), in)

	// The surviving duplicate matches a downvoted pattern and dies at
	// feedback, so nothing survives.
	assert.Empty(t, kept)
	assert.Equal(t, 3, stats.TotalGenerated)
	assert.Equal(t, 3, stats.TotalFiltered)
	assert.Equal(t, 1, stats.Reasons[domain.ReasonLowConfidence])
	assert.Equal(t, 1, stats.Reasons[domain.ReasonDuplicate])
	assert.Equal(t, 1, stats.Reasons[domain.ReasonDownvotedSimilar])
}
