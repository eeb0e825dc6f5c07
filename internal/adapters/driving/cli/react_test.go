package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revloop-dev/revloop/internal/core/ports/driven"
)

func TestReactCmd_RecordsReaction(t *testing.T) {
	env := setupTestServices(t)
	env.seedFinding(t, "f-1", 100)

	out, err := execute(t, "react", "f-1", "--by", "alice", "--kind", "positive")
	require.NoError(t, err)
	assert.Contains(t, out, "Reaction recorded.")

	out, err = execute(t, "react", "f-1", "--by", "alice", "--kind", "positive")
	require.NoError(t, err)
	assert.Contains(t, out, "already recorded")
}

func TestReactCmd_InfersKindFromNote(t *testing.T) {
	env := setupTestServices(t)
	env.seedFinding(t, "f-1", 100)
	reactKind, reactNote = "", ""
	defer func() { reactKind, reactNote = "", "" }()

	_, err := execute(t, "react", "f-1", "--by", "bob", "--note", "good catch, fixed")
	require.NoError(t, err)

	summary, err := env.ledger.Summary(t.Context(), "f-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Positive)
}

func TestReactCmd_RequiresKindOrNote(t *testing.T) {
	setupTestServices(t)
	defer func() { reactKind, reactNote = "", "" }()

	_, err := execute(t, "react", "f-1", "--by", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either --kind or --note")
}

func TestReactCmd_UnknownFinding(t *testing.T) {
	setupTestServices(t)
	defer func() { reactKind, reactNote = "", "" }()

	_, err := execute(t, "react", "missing", "--by", "alice", "--kind", "positive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSyncCmd_RecordsReactions(t *testing.T) {
	env := setupTestServices(t)
	env.seedFinding(t, "f-1", 100)
	env.reactions.reactions[100] = []driven.CommentReaction{
		{Reactor: "alice", Content: "+1"},
		{Reactor: "bob", Content: "-1"},
	}

	out, err := execute(t, "sync", "octocat/hello-world")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded 2 new reactions.")
}

func TestStatsCmd_ShowsSummary(t *testing.T) {
	env := setupTestServices(t)
	env.seedFinding(t, "f-1", 100)
	defer func() { reactKind, reactNote = "", "" }()

	_, err := execute(t, "react", "f-1", "--by", "alice", "--kind", "negative", "--note", "false positive, the lock is held")
	require.NoError(t, err)

	out, err := execute(t, "stats", "f-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Negative: 1")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "false positive")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "revloop version")
}
