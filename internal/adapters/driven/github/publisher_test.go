package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), "test-token", server.URL)
	require.NoError(t, err)
	return client
}

func TestSplitScope(t *testing.T) {
	owner, repo, err := splitScope("octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "hello-world", repo)

	for _, bad := range []string{"", "octocat", "octocat/", "/hello"} {
		_, _, err := splitScope(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestPublisher_FileLevelFindingPostsIssueComment(t *testing.T) {
	var gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/repos/octocat/hello-world/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Body string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotBody = payload.Body

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 4242}`))
	})

	pub := NewPublisher(newTestClient(t, mux), nil)

	f := &domain.Finding{
		RepoScope:   "octocat/hello-world",
		PRNumber:    7,
		FilePath:    "pkg/server/handler.go",
		Description: "handler lacks request validation",
		Category:    domain.CategoryLogicError,
		Severity:    domain.SeverityMedium,
		Confidence:  0.75,
	}

	commentID, err := pub.Publish(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), commentID)
	assert.Contains(t, gotBody, "medium")
	assert.Contains(t, gotBody, "75%")
	assert.Contains(t, gotBody, "handler lacks request validation")
}

func TestPublisher_LineFindingPostsReviewComment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/octocat/hello-world/pulls/7", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"number": 7, "head": {"sha": "abc123"}}`))
	})

	var gotPath, gotCommit string
	var gotLine int
	mux.HandleFunc("POST /api/v3/repos/octocat/hello-world/pulls/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Path     string `json:"path"`
			Line     int    `json:"line"`
			CommitID string `json:"commit_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotPath, gotLine, gotCommit = payload.Path, payload.Line, payload.CommitID

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 777}`))
	})

	pub := NewPublisher(newTestClient(t, mux), nil)

	line := 12
	f := &domain.Finding{
		RepoScope:   "octocat/hello-world",
		PRNumber:    7,
		FilePath:    "pkg/server/handler.go",
		LineNumber:  &line,
		Description: "unchecked write error",
		Category:    domain.CategoryLogicError,
		Severity:    domain.SeverityHigh,
		Confidence:  0.8,
	}

	commentID, err := pub.Publish(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(777), commentID)
	assert.Equal(t, "pkg/server/handler.go", gotPath)
	assert.Equal(t, 12, gotLine)
	assert.Equal(t, "abc123", gotCommit)
}

func TestPublisher_APIErrorSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/repos/octocat/hello-world/issues/7/comments", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	pub := NewPublisher(newTestClient(t, mux), nil)

	f := &domain.Finding{
		RepoScope:   "octocat/hello-world",
		PRNumber:    7,
		FilePath:    "pkg/server/handler.go",
		Description: "anything",
		Severity:    domain.SeverityLow,
		Confidence:  0.6,
	}

	_, err := pub.Publish(context.Background(), f)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestReactionSource_ListsReviewCommentReactions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/octocat/hello-world/pulls/comments/777/reactions", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"user": {"login": "alice"}, "content": "+1"},
			{"user": {"login": "bob"}, "content": "-1"}
		]`))
	})

	src := NewReactionSource(newTestClient(t, mux))

	got, err := src.ListReactions(context.Background(), "octocat/hello-world", 777)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Reactor)
	assert.Equal(t, "+1", got[0].Content)
	assert.Equal(t, "bob", got[1].Reactor)
	assert.Equal(t, "-1", got[1].Content)
}

// TestReactionSource_FallsBackToIssueComment tests that a comment missing
// from the review comment endpoint is retried as an issue comment.
func TestReactionSource_FallsBackToIssueComment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/octocat/hello-world/pulls/comments/4242/reactions", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})
	mux.HandleFunc("GET /api/v3/repos/octocat/hello-world/issues/comments/4242/reactions", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"user": {"login": "carol"}, "content": "heart"}]`))
	})

	src := NewReactionSource(newTestClient(t, mux))

	got, err := src.ListReactions(context.Background(), "octocat/hello-world", 4242)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "carol", got[0].Reactor)
	assert.Equal(t, "heart", got[0].Content)
}

func TestReactionSource_CommentGone(t *testing.T) {
	notFound := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/octocat/hello-world/pulls/comments/1/reactions", notFound)
	mux.HandleFunc("GET /api/v3/repos/octocat/hello-world/issues/comments/1/reactions", notFound)

	src := NewReactionSource(newTestClient(t, mux))

	_, err := src.ListReactions(context.Background(), "octocat/hello-world", 1)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}
