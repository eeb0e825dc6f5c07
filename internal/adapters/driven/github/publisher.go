package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
)

// Ensure Publisher implements the interface.
var _ driven.ReviewPublisher = (*Publisher)(nil)

// Publisher posts findings as pull request comments. Line-anchored
// findings become review comments on the diff; file-level findings become
// plain issue comments on the pull request conversation.
type Publisher struct {
	client    *Client
	templates driven.TemplateStore
}

// NewPublisher creates a publisher. templates may be nil, in which case a
// built-in plain format is used.
func NewPublisher(client *Client, templates driven.TemplateStore) *Publisher {
	return &Publisher{client: client, templates: templates}
}

// Publish posts one finding and returns the comment ID GitHub assigned.
func (p *Publisher) Publish(ctx context.Context, f *domain.Finding) (int64, error) {
	owner, repo, err := splitScope(f.RepoScope)
	if err != nil {
		return 0, err
	}

	body := p.formatBody(f)

	if f.LineNumber != nil {
		return p.publishReviewComment(ctx, owner, repo, f, body)
	}
	return p.publishIssueComment(ctx, owner, repo, f.PRNumber, body)
}

// publishReviewComment anchors the comment to the finding's line on the
// head commit of the pull request.
func (p *Publisher) publishReviewComment(ctx context.Context, owner, repo string, f *domain.Finding, body string) (int64, error) {
	pr, err := p.client.getPullRequest(ctx, owner, repo, f.PRNumber)
	if err != nil {
		return 0, err
	}

	if err := p.client.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	comment := &gh.PullRequestComment{
		Body:     gh.Ptr(body),
		Path:     gh.Ptr(f.FilePath),
		Line:     gh.Ptr(*f.LineNumber),
		Side:     gh.Ptr("RIGHT"),
		CommitID: gh.Ptr(pr.GetHead().GetSHA()),
	}

	created, resp, err := p.client.gh.PullRequests.CreateComment(ctx, owner, repo, f.PRNumber, comment)
	if err != nil {
		return 0, p.client.wrapError(err, "create review comment")
	}

	p.client.updateRateLimitFromResponse(resp)
	return created.GetID(), nil
}

// publishIssueComment posts to the pull request conversation.
func (p *Publisher) publishIssueComment(ctx context.Context, owner, repo string, prNumber int, body string) (int64, error) {
	if err := p.client.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	created, resp, err := p.client.gh.Issues.CreateComment(ctx, owner, repo, prNumber, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return 0, p.client.wrapError(err, "create issue comment")
	}

	p.client.updateRateLimitFromResponse(resp)
	return created.GetID(), nil
}

// formatBody renders the finding through the comment template.
func (p *Publisher) formatBody(f *domain.Finding) string {
	tmpl := fallbackTemplate
	if p.templates != nil {
		if loaded, err := p.templates.Load(driven.TemplateFindingComment); err == nil {
			tmpl = loaded
		}
	}
	return fmt.Sprintf(tmpl, string(f.Severity), string(f.Category), f.Confidence*100, f.Description)
}

const fallbackTemplate = `**%s** (%s, confidence %.0f%%)

%s`
