package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testFinding(id string, commentID int64, embedding []float32) *domain.Finding {
	line := 42
	return &domain.Finding{
		ID:              id,
		RepoScope:       "octocat/hello-world",
		PRNumber:        7,
		FilePath:        "pkg/server/handler.go",
		LineNumber:      &line,
		Description:     "nil pointer dereference in request handler",
		Category:        domain.CategoryLogicError,
		Severity:        domain.SeverityHigh,
		Confidence:      0.8,
		EvidenceSnippet: "body := req.Body",
		Embedding:       embedding,
		CommentID:       &commentID,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrate again; already-applied versions are skipped.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestFindingStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ctx := context.Background()

	f := testFinding("f-1", 100, []float32{0.1, 0.2, 0.3})
	require.NoError(t, findings.SaveFinding(ctx, f))

	got, err := findings.GetFinding(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, f.Description, got.Description)
	assert.Equal(t, f.Category, got.Category)
	assert.Equal(t, f.Severity, got.Severity)
	assert.Equal(t, f.Embedding, got.Embedding)
	require.NotNil(t, got.LineNumber)
	assert.Equal(t, 42, *got.LineNumber)
	require.NotNil(t, got.CommentID)
	assert.Equal(t, int64(100), *got.CommentID)
}

func TestFindingStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindingStore().GetFinding(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindingStore_GetByCommentID(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ctx := context.Background()

	require.NoError(t, findings.SaveFinding(ctx, testFinding("f-1", 100, nil)))

	got, err := findings.GetFindingByCommentID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "f-1", got.ID)

	_, err = findings.GetFindingByCommentID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindingStore_NullOptionals(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ctx := context.Background()

	f := testFinding("f-1", 100, nil)
	f.LineNumber = nil
	f.CommentID = nil
	require.NoError(t, findings.SaveFinding(ctx, f))

	got, err := findings.GetFinding(ctx, "f-1")
	require.NoError(t, err)
	assert.Nil(t, got.LineNumber)
	assert.Nil(t, got.CommentID)
	assert.Nil(t, got.Embedding)
}

func TestFindingStore_ListPublishedSince(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ctx := context.Background()

	old := testFinding("f-old", 100, nil)
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, findings.SaveFinding(ctx, old))

	recent := testFinding("f-new", 101, nil)
	require.NoError(t, findings.SaveFinding(ctx, recent))

	unpublished := testFinding("f-draft", 0, nil)
	unpublished.CommentID = nil
	require.NoError(t, findings.SaveFinding(ctx, unpublished))

	got, err := findings.ListPublishedSince(ctx, "octocat/hello-world", time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f-new", got[0].ID)
}

func TestFindingStore_QuerySimilar(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ledger := store.ReactionLedger()
	ctx := context.Background()

	require.NoError(t, findings.SaveFinding(ctx, testFinding("f-close", 100, []float32{1, 0, 0})))
	require.NoError(t, findings.SaveFinding(ctx, testFinding("f-near", 101, []float32{0.9, 0.1, 0})))
	require.NoError(t, findings.SaveFinding(ctx, testFinding("f-far", 102, []float32{0, 0, 1})))

	_, err := ledger.Record(ctx, domain.Reaction{FindingID: "f-close", Reactor: "alice", Kind: domain.ReactionNegative})
	require.NoError(t, err)
	_, err = ledger.Record(ctx, domain.Reaction{FindingID: "f-close", Reactor: "bob", Kind: domain.ReactionPositive})
	require.NoError(t, err)

	got, err := findings.QuerySimilar(ctx, []float32{1, 0, 0}, "octocat/hello-world", 0.85, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "f-close", got[0].Finding.ID)
	assert.Equal(t, 1, got[0].Positive)
	assert.Equal(t, 1, got[0].Negative)
	assert.Equal(t, "f-near", got[1].Finding.ID)
	assert.Zero(t, got[1].Positive)
}

// TestFindingStore_QuerySimilar_ScopeIsolation tests that another
// repository's findings never surface, no matter how similar.
func TestFindingStore_QuerySimilar_ScopeIsolation(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ctx := context.Background()

	foreign := testFinding("f-foreign", 100, []float32{1, 0, 0})
	foreign.RepoScope = "octocat/other"
	require.NoError(t, findings.SaveFinding(ctx, foreign))

	got, err := findings.QuerySimilar(ctx, []float32{1, 0, 0}, "octocat/hello-world", 0.5, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindingStore_QuerySimilar_TopK(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ctx := context.Background()

	for i := range 10 {
		f := testFinding("f-"+string(rune('a'+i)), int64(100+i), []float32{1, 0, 0})
		require.NoError(t, findings.SaveFinding(ctx, f))
	}

	got, err := findings.QuerySimilar(ctx, []float32{1, 0, 0}, "octocat/hello-world", 0.85, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestFindingStore_RecordFilterStats(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ctx := context.Background()

	stats := domain.NewFilterStats(10)
	stats.TotalFiltered = 4
	stats.AddReason(domain.ReasonLowConfidence, 3)
	stats.AddReason(domain.ReasonDuplicate, 1)
	stats.AddWarning("feedback: index unavailable")

	rc := domain.ReviewContext{RepoScope: "octocat/hello-world", PRNumber: 7}
	require.NoError(t, findings.RecordFilterStats(ctx, rc, stats))

	var total int
	var reasons string
	err := store.db.QueryRow(`SELECT total_generated, reasons FROM filter_stats WHERE repo_scope = ?`,
		"octocat/hello-world").Scan(&total, &reasons)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Contains(t, reasons, domain.ReasonLowConfidence)
}

func TestReactionLedger_RecordIdempotent(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ledger := store.ReactionLedger()
	ctx := context.Background()

	require.NoError(t, findings.SaveFinding(ctx, testFinding("f-1", 100, nil)))

	r := domain.Reaction{FindingID: "f-1", Reactor: "alice", Kind: domain.ReactionNegative}

	inserted, err := ledger.Record(ctx, r)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = ledger.Record(ctx, r)
	require.NoError(t, err)
	assert.False(t, inserted)

	summary, err := ledger.Summary(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Negative)
}

func TestReactionLedger_Summary(t *testing.T) {
	store := newTestStore(t)
	findings := store.FindingStore()
	ledger := store.ReactionLedger()
	ctx := context.Background()

	require.NoError(t, findings.SaveFinding(ctx, testFinding("f-1", 100, nil)))

	reactions := []domain.Reaction{
		{FindingID: "f-1", Reactor: "alice", Kind: domain.ReactionNegative, Explanation: "this is intentional"},
		{FindingID: "f-1", Reactor: "bob", Kind: domain.ReactionNegative},
		{FindingID: "f-1", Reactor: "carol", Kind: domain.ReactionPositive},
		{FindingID: "f-1", Reactor: "dave", Kind: domain.ReactionOther},
	}
	for _, r := range reactions {
		_, err := ledger.Record(ctx, r)
		require.NoError(t, err)
	}

	summary, err := ledger.Summary(ctx, "f-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Positive)
	assert.Equal(t, 2, summary.Negative)
	require.Len(t, summary.Explanations, 1)
	assert.Equal(t, "alice", summary.Explanations[0].Reactor)
	assert.Equal(t, "this is intentional", summary.Explanations[0].Text)
	assert.Equal(t, domain.ReactionNegative, summary.Explanations[0].Sentiment)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	original := []float32{0.1, -2.5, 3.75, 0}
	assert.Equal(t, original, bytesToFloat32Slice(float32SliceToBytes(original)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
