package driven

import (
	"context"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

// ReviewPublisher posts surviving findings as externally visible review
// comments. The external comment identifier it returns is stored on the
// finding so later reaction syncs can find the comment again.
type ReviewPublisher interface {
	// Publish posts one finding and returns the external comment ID.
	Publish(ctx context.Context, f *domain.Finding) (commentID int64, err error)
}

// CommentReaction is one raw reaction fetched from the external platform,
// before normalisation.
type CommentReaction struct {
	// Reactor is the identity that reacted.
	Reactor string

	// Content is the platform's reaction content string (e.g. "+1").
	Content string
}

// ReactionSource fetches reactions left on published comments. It is the
// read side of the external platform; the background sync pulls from it
// into the ReactionLedger.
type ReactionSource interface {
	// ListReactions returns all reactions on the given comment.
	ListReactions(ctx context.Context, repoScope string, commentID int64) ([]CommentReaction, error)
}
