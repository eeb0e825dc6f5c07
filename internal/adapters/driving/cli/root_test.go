package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/revloop-dev/revloop/internal/adapters/driven/storage/memory"
	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/filters"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
	"github.com/revloop-dev/revloop/internal/core/services"
)

// fakePublisher hands out sequential comment IDs.
type fakePublisher struct {
	nextID    int64
	published int
}

func (p *fakePublisher) Publish(_ context.Context, _ *domain.Finding) (int64, error) {
	p.nextID++
	p.published++
	return p.nextID, nil
}

// fakeReactionSource serves canned reactions per comment ID.
type fakeReactionSource struct {
	reactions map[int64][]driven.CommentReaction
}

func (s *fakeReactionSource) ListReactions(_ context.Context, _ string, commentID int64) ([]driven.CommentReaction, error) {
	return s.reactions[commentID], nil
}

// fakeFetcher serves canned file contents.
type fakeFetcher struct {
	files map[string]string
}

func (f *fakeFetcher) ChangedFiles(_ context.Context, _ string, _ int) (map[string]string, error) {
	return f.files, nil
}

// testEnv bundles the memory-backed services wired into the commands.
type testEnv struct {
	store     *memory.FindingStore
	ledger    *memory.ReactionLedger
	publisher *fakePublisher
	reactions *fakeReactionSource
}

// setupTestServices wires real services over in-memory storage and
// restores the previous wiring on cleanup.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ledger:    memory.NewReactionLedger(),
		publisher: &fakePublisher{},
		reactions: &fakeReactionSource{reactions: make(map[int64][]driven.CommentReaction)},
	}
	env.store = memory.NewFindingStore(env.ledger)

	oldReview, oldFeedback, oldFetcher := reviewService, feedbackService, fileFetcher
	SetServices(Services{
		Review:   services.NewReviewOrchestrator(filters.DefaultChainConfig(), env.store, env.publisher, nil),
		Feedback: services.NewFeedbackManager(env.store, env.ledger, env.reactions),
		Files:    &fakeFetcher{},
	})
	t.Cleanup(func() {
		reviewService, feedbackService, fileFetcher = oldReview, oldFeedback, oldFetcher
	})

	return env
}

// seedFinding persists a published finding for commands that need one.
func (env *testEnv) seedFinding(t *testing.T, id string, commentID int64) {
	t.Helper()
	f := &domain.Finding{
		ID:          id,
		RepoScope:   "octocat/hello-world",
		PRNumber:    7,
		FilePath:    "pkg/server/handler.go",
		Description: "unchecked write error",
		Severity:    domain.SeverityMedium,
		Confidence:  0.8,
		CommentID:   &commentID,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, env.store.SaveFinding(context.Background(), f))
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}
