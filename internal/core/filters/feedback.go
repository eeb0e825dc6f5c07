package filters

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
	"github.com/revloop-dev/revloop/internal/logger"
)

// Default feedback learning parameters, taken from observed production
// configuration. All of them are adjustable via FeedbackConfig.
const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for a
	// prior finding to count as "the same kind of finding".
	DefaultSimilarityThreshold = 0.85

	// DefaultTopK is how many similar priors are aggregated.
	DefaultTopK = 5

	// DefaultUpvoteThreshold is the minimum aggregate positive count
	// before a candidate is boosted.
	DefaultUpvoteThreshold = 2

	// DefaultDownvoteThreshold is the minimum aggregate negative count
	// before a candidate is suppressed.
	DefaultDownvoteThreshold = 2

	// DefaultBoostFactor is the confidence multiplier for well-received
	// patterns, capped so confidence stays a probability-like quantity.
	DefaultBoostFactor = 1.2

	// DefaultMaxEmbedChars caps the text sent to the embedding provider.
	DefaultMaxEmbedChars = 2000
)

// FeedbackConfig configures the feedback learning stage.
type FeedbackConfig struct {
	// SimilarityThreshold is the cosine similarity cutoff.
	SimilarityThreshold float64

	// TopK is the maximum number of similar priors considered.
	TopK int

	// UpvoteThreshold gates confidence boosting.
	UpvoteThreshold int

	// DownvoteThreshold gates suppression.
	DownvoteThreshold int

	// BoostFactor is the confidence multiplier on boost.
	BoostFactor float64

	// MaxEmbedChars truncates descriptions before embedding.
	MaxEmbedChars int
}

// DefaultFeedbackConfig returns the standard learning parameters.
func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		SimilarityThreshold: DefaultSimilarityThreshold,
		TopK:                DefaultTopK,
		UpvoteThreshold:     DefaultUpvoteThreshold,
		DownvoteThreshold:   DefaultDownvoteThreshold,
		BoostFactor:         DefaultBoostFactor,
		MaxEmbedChars:       DefaultMaxEmbedChars,
	}
}

// Feedback suppresses candidates resembling priors the repository's humans
// downvoted and boosts those resembling priors they upvoted.
//
// For each candidate it embeds the description, queries the similarity
// index within the repository scope, and aggregates reactions across all
// matches: a candidate matching five weakly-downvoted priors is at least
// as suspect as one matching a single strongly-downvoted prior. The
// decision is threshold-gated (a lone disagreement never silences a
// pattern) and majority-gated (mixed reception never flips the outcome).
//
// Every failure along the way, embedding provider down or index
// unreachable, degrades to pass-through for that one candidate. A run
// where feedback has no effect is indistinguishable from cold start.
type Feedback struct {
	cfg       FeedbackConfig
	embedder  driven.EmbeddingService
	store     driven.FindingStore
	repoScope string
}

// NewFeedback creates the feedback stage for one review run. Either
// collaborator may be nil, in which case the stage passes everything
// through.
func NewFeedback(cfg FeedbackConfig, embedder driven.EmbeddingService, store driven.FindingStore, repoScope string) *Feedback {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.UpvoteThreshold <= 0 {
		cfg.UpvoteThreshold = DefaultUpvoteThreshold
	}
	if cfg.DownvoteThreshold <= 0 {
		cfg.DownvoteThreshold = DefaultDownvoteThreshold
	}
	if cfg.BoostFactor <= 1 {
		cfg.BoostFactor = DefaultBoostFactor
	}
	if cfg.MaxEmbedChars <= 0 {
		cfg.MaxEmbedChars = DefaultMaxEmbedChars
	}
	return &Feedback{cfg: cfg, embedder: embedder, store: store, repoScope: repoScope}
}

// Name identifies the stage.
func (fb *Feedback) Name() string { return "feedback" }

// Apply adjusts or suppresses each candidate based on reaction history.
func (fb *Feedback) Apply(ctx context.Context, in []domain.Finding) Outcome {
	if fb.embedder == nil || fb.store == nil {
		out := passThrough(in)
		if len(in) > 0 {
			out.Warnings = append(out.Warnings, "feedback history unavailable, passing batch through")
		}
		return out
	}

	out := Outcome{Kept: make([]domain.Finding, 0, len(in))}
	for _, f := range in {
		kept, boosted, warning := fb.evaluate(ctx, &f)
		if warning != "" {
			out.Warnings = append(out.Warnings, warning)
		}
		if boosted {
			out.Boosted++
		}
		if kept {
			out.Kept = append(out.Kept, f)
		} else {
			out.drop(domain.ReasonDownvotedSimilar)
		}
	}
	return out
}

// evaluate decides one candidate's fate. It mutates f's Embedding (cached
// for later persistence) and possibly its Confidence.
func (fb *Feedback) evaluate(ctx context.Context, f *domain.Finding) (kept, boosted bool, warning string) {
	if f.Embedding == nil {
		emb, err := fb.embedder.Embed(ctx, truncate(f.Description, fb.cfg.MaxEmbedChars))
		if err != nil {
			return true, false, fmt.Sprintf("embed failed for finding %s: %v", f.ID, err)
		}
		f.Embedding = emb
	}

	matches, err := fb.store.QuerySimilar(ctx, f.Embedding, fb.repoScope, fb.cfg.SimilarityThreshold, fb.cfg.TopK)
	if err != nil {
		return true, false, fmt.Sprintf("similarity query failed for finding %s: %v", f.ID, err)
	}
	if len(matches) == 0 {
		// Cold start or genuinely novel finding.
		return true, false, ""
	}

	var positive, negative int
	for _, m := range matches {
		positive += m.Positive
		negative += m.Negative
	}

	switch {
	case negative >= fb.cfg.DownvoteThreshold && negative > positive:
		logger.Info("Suppressing finding %q (%s): similar to %d downvoted priors", f.Category, f.FilePath, negative)
		return false, false, ""

	case positive >= fb.cfg.UpvoteThreshold && positive > negative:
		f.Confidence = min(1.0, f.Confidence*fb.cfg.BoostFactor)
		logger.Info("Boosting finding %q (%s): similar to %d upvoted priors", f.Category, f.FilePath, positive)
		return true, true, ""

	default:
		return true, false, ""
	}
}

// truncate caps s at n bytes, backing off so a multi-byte rune is never
// cut in half.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
