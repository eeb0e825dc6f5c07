package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

func published(id, scope string, commentID int64, embedding []float32, createdAt time.Time) *domain.Finding {
	line := 10
	return &domain.Finding{
		ID:          id,
		RepoScope:   scope,
		PRNumber:    1,
		FilePath:    "pkg/server/handler.go",
		LineNumber:  &line,
		Description: "nil pointer dereference in handler",
		Category:    domain.CategoryLogicError,
		Severity:    domain.SeverityHigh,
		Confidence:  0.8,
		Embedding:   embedding,
		CommentID:   &commentID,
		CreatedAt:   createdAt,
	}
}

func TestFindingStore_SaveAndGet(t *testing.T) {
	store := NewFindingStore(nil)
	ctx := context.Background()

	f := published("f-1", "octocat/hello-world", 100, []float32{1, 0}, time.Now())
	require.NoError(t, store.SaveFinding(ctx, f))

	got, err := store.GetFinding(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, f.Description, got.Description)
	assert.Equal(t, f.Embedding, got.Embedding)

	_, err = store.GetFinding(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindingStore_GetByCommentID(t *testing.T) {
	store := NewFindingStore(nil)
	ctx := context.Background()

	require.NoError(t, store.SaveFinding(ctx, published("f-1", "octocat/hello-world", 100, nil, time.Now())))

	got, err := store.GetFindingByCommentID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "f-1", got.ID)

	_, err = store.GetFindingByCommentID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindingStore_ListPublishedSince(t *testing.T) {
	store := NewFindingStore(nil)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-1 * time.Hour)

	require.NoError(t, store.SaveFinding(ctx, published("f-old", "octocat/hello-world", 100, nil, old)))
	require.NoError(t, store.SaveFinding(ctx, published("f-new", "octocat/hello-world", 101, nil, recent)))
	require.NoError(t, store.SaveFinding(ctx, published("f-other", "octocat/other", 102, nil, recent)))

	got, err := store.ListPublishedSince(ctx, "octocat/hello-world", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f-new", got[0].ID)
}

func TestFindingStore_QuerySimilar(t *testing.T) {
	ledger := NewReactionLedger()
	store := NewFindingStore(ledger)
	ctx := context.Background()

	require.NoError(t, store.SaveFinding(ctx, published("f-close", "octocat/hello-world", 100, []float32{1, 0, 0}, time.Now())))
	require.NoError(t, store.SaveFinding(ctx, published("f-near", "octocat/hello-world", 101, []float32{0.9, 0.1, 0}, time.Now())))
	require.NoError(t, store.SaveFinding(ctx, published("f-far", "octocat/hello-world", 102, []float32{0, 0, 1}, time.Now())))

	_, err := ledger.Record(ctx, domain.Reaction{FindingID: "f-close", Reactor: "alice", Kind: domain.ReactionNegative})
	require.NoError(t, err)

	got, err := store.QuerySimilar(ctx, []float32{1, 0, 0}, "octocat/hello-world", 0.85, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by descending similarity, counts attached.
	assert.Equal(t, "f-close", got[0].Finding.ID)
	assert.Equal(t, 1, got[0].Negative)
	assert.Equal(t, "f-near", got[1].Finding.ID)
	assert.Zero(t, got[1].Negative)
}

// TestFindingStore_QuerySimilar_ScopeIsolation tests that findings from
// another repository never surface, no matter how similar.
func TestFindingStore_QuerySimilar_ScopeIsolation(t *testing.T) {
	store := NewFindingStore(nil)
	ctx := context.Background()

	require.NoError(t, store.SaveFinding(ctx, published("f-foreign", "octocat/other", 100, []float32{1, 0, 0}, time.Now())))

	got, err := store.QuerySimilar(ctx, []float32{1, 0, 0}, "octocat/hello-world", 0.5, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindingStore_QuerySimilar_TopK(t *testing.T) {
	store := NewFindingStore(nil)
	ctx := context.Background()

	for i := range 10 {
		f := published("f", "octocat/hello-world", int64(100+i), []float32{1, 0, 0}, time.Now())
		f.ID = f.ID + "-" + string(rune('a'+i))
		require.NoError(t, store.SaveFinding(ctx, f))
	}

	got, err := store.QuerySimilar(ctx, []float32{1, 0, 0}, "octocat/hello-world", 0.85, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestFindingStore_RecordFilterStats(t *testing.T) {
	store := NewFindingStore(nil)
	ctx := context.Background()

	rc := domain.ReviewContext{RepoScope: "octocat/hello-world", PRNumber: 7}
	require.NoError(t, store.RecordFilterStats(ctx, rc, domain.NewFilterStats(3)))
	assert.Equal(t, 1, store.StatsCount())
}
