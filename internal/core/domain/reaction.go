package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxExplanationLen caps stored written feedback.
const MaxExplanationLen = 2000

// ReactionKind is the normalised feedback polarity of a reaction.
// Only positive and negative participate in filtering arithmetic; other
// kinds are stored but ignored by the feedback stage.
type ReactionKind string

const (
	ReactionPositive ReactionKind = "positive"
	ReactionNegative ReactionKind = "negative"
	ReactionOther    ReactionKind = "other"
)

// IsValid returns true if the kind is a recognised value.
func (k ReactionKind) IsValid() bool {
	switch k {
	case ReactionPositive, ReactionNegative, ReactionOther:
		return true
	default:
		return false
	}
}

// NormalizeGitHubReaction maps a GitHub reaction content string onto a
// ReactionKind. Only thumbs up/down carry filtering signal.
func NormalizeGitHubReaction(content string) ReactionKind {
	switch content {
	case "+1":
		return ReactionPositive
	case "-1":
		return ReactionNegative
	case "laugh", "confused", "heart", "hooray", "rocket", "eyes":
		return ReactionOther
	default:
		return ReactionOther
	}
}

// Reaction records one identity's feedback on one published finding.
// At most one reaction exists per (finding, reactor, kind) triple;
// re-applying the same reaction is idempotent, not cumulative.
type Reaction struct {
	// FindingID is the owning finding.
	FindingID string

	// Reactor identifies who reacted (e.g. a username).
	Reactor string

	// Kind is the normalised feedback polarity.
	Kind ReactionKind

	// Explanation is optional written feedback accompanying the
	// reaction, truncated to MaxExplanationLen.
	Explanation string

	// CreatedAt is when the reaction was first recorded.
	CreatedAt time.Time
}

// Validate checks that a reaction is well-formed.
func (r *Reaction) Validate() error {
	if strings.TrimSpace(r.FindingID) == "" {
		return fmt.Errorf("%w: empty finding id", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Reactor) == "" {
		return fmt.Errorf("%w: empty reactor", ErrInvalidInput)
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: unknown reaction kind %q", ErrInvalidInput, r.Kind)
	}
	return nil
}

// TruncateExplanation trims the explanation to MaxExplanationLen.
func (r *Reaction) TruncateExplanation() {
	if len(r.Explanation) > MaxExplanationLen {
		r.Explanation = r.Explanation[:MaxExplanationLen]
	}
}

// ExplanationNote is one piece of written feedback on a finding.
type ExplanationNote struct {
	// Reactor is who wrote the feedback.
	Reactor string

	// Text is the feedback body.
	Text string

	// Sentiment is the polarity inferred or supplied with the feedback.
	Sentiment ReactionKind
}

// FeedbackSummary aggregates reactions on a single finding.
type FeedbackSummary struct {
	// Positive is the number of distinct positive reactors.
	Positive int

	// Negative is the number of distinct negative reactors.
	Negative int

	// Explanations holds any written feedback received.
	Explanations []ExplanationNote
}
