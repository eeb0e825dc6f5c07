package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/revloop-dev/revloop/internal/core/ports/driven"
)

// Ensure ReactionSource implements the interface.
var _ driven.ReactionSource = (*ReactionSource)(nil)

// ReactionSource reads reactions off published comments. Comments may be
// review comments on the diff or plain issue comments, so lookups try the
// review comment endpoint first and fall back on a 404.
type ReactionSource struct {
	client *Client
}

// NewReactionSource creates a reaction source.
func NewReactionSource(client *Client) *ReactionSource {
	return &ReactionSource{client: client}
}

// ListReactions returns all reactions on the given comment.
func (s *ReactionSource) ListReactions(ctx context.Context, repoScope string, commentID int64) ([]driven.CommentReaction, error) {
	owner, repo, err := splitScope(repoScope)
	if err != nil {
		return nil, err
	}

	reactions, err := s.listAll(ctx, func(opts *gh.ListReactionOptions) ([]*gh.Reaction, *gh.Response, error) {
		return s.client.gh.Reactions.ListPullRequestCommentReactions(ctx, owner, repo, commentID, opts)
	})
	if IsNotFound(err) {
		reactions, err = s.listAll(ctx, func(opts *gh.ListReactionOptions) ([]*gh.Reaction, *gh.Response, error) {
			return s.client.gh.Reactions.ListIssueCommentReactions(ctx, owner, repo, commentID, opts)
		})
	}
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: comment %d", ErrCommentNotFound, commentID)
		}
		return nil, err
	}

	out := make([]driven.CommentReaction, 0, len(reactions))
	for _, r := range reactions {
		out = append(out, driven.CommentReaction{
			Reactor: r.GetUser().GetLogin(),
			Content: r.GetContent(),
		})
	}
	return out, nil
}

// listAll drains every page from a reaction list endpoint.
func (s *ReactionSource) listAll(ctx context.Context, list func(*gh.ListReactionOptions) ([]*gh.Reaction, *gh.Response, error)) ([]*gh.Reaction, error) {
	var all []*gh.Reaction
	opts := &gh.ListReactionOptions{ListOptions: gh.ListOptions{PerPage: 100}}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := s.client.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		reactions, resp, err := list(opts)
		if err != nil {
			return nil, s.client.wrapError(err, "list reactions")
		}

		s.client.updateRateLimitFromResponse(resp)
		all = append(all, reactions...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}
