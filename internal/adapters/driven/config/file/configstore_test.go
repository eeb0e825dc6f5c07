package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/filters"
)

func TestConfigStore_DefaultsWithoutFile(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, filters.DefaultDedupRatio, cfg.Filters.Dedup.Ratio)
	assert.Equal(t, filters.DefaultSimilarityThreshold, cfg.Filters.Feedback.SimilarityThreshold)
	assert.Equal(t, filters.DefaultTopK, cfg.Filters.Feedback.TopK)
	assert.False(t, cfg.Filters.Hallucination.Strict)
}

func TestConfigStore_LoadOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[github]
token = "ghp_test"

[embedding]
provider = "ollama"
model = "nomic-embed-text"

[filters.dedup]
ratio = 90

[filters.feedback]
top_k = 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, 90, cfg.Filters.Dedup.Ratio)
	assert.Equal(t, 10, cfg.Filters.Feedback.TopK)

	// Untouched sections keep their defaults.
	assert.Equal(t, filters.DefaultDedupLineWindow, cfg.Filters.Dedup.LineWindow)
	assert.Equal(t, filters.DefaultBoostFactor, cfg.Filters.Feedback.BoostFactor)
}

func TestConfigStore_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save())

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, store.Config(), reloaded.Config())
}

func TestConfigStore_BadFileRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestFiltersConfig_ChainConfig(t *testing.T) {
	cfg := DefaultConfig()
	chain := cfg.Filters.ChainConfig()

	assert.Equal(t, filters.DefaultConfidenceThreshold, chain.Confidence.Default)
	assert.Equal(t, filters.SecurityConfidenceThreshold, chain.Confidence.PerCategory[domain.CategorySecurity])
	assert.Equal(t, filters.DefaultDedupRatio, chain.Dedup.Ratio)
	assert.Equal(t, filters.DefaultSimilarityThreshold, chain.Feedback.SimilarityThreshold)
}

func TestEmbeddingConfig_Settings(t *testing.T) {
	cfg := EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", APIKey: "sk-test"}
	settings := cfg.Settings()

	assert.Equal(t, domain.AIProviderOpenAI, settings.Provider)
	assert.True(t, settings.IsConfigured())
}

func TestConfigStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan Config, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Watch(ctx, func(cfg Config) {
			select {
			case changed <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	content := "[filters.dedup]\nratio = 95\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	select {
	case cfg := <-changed:
		assert.Equal(t, 95, cfg.Filters.Dedup.Ratio)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}

	cancel()
	<-done
}
