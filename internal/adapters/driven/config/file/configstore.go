package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/filters"
)

// Config is the full on-disk configuration.
type Config struct {
	GitHub    GitHubConfig    `toml:"github"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Storage   StorageConfig   `toml:"storage"`
	Filters   FiltersConfig   `toml:"filters"`
}

// GitHubConfig configures the GitHub client.
type GitHubConfig struct {
	// Token is a personal access token. Falls back to the GITHUB_TOKEN
	// environment variable when empty.
	Token string `toml:"token"`

	// BaseURL overrides the API endpoint for GitHub Enterprise.
	BaseURL string `toml:"base_url"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

// Settings converts the section into domain settings.
func (c EmbeddingConfig) Settings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:   domain.AIProvider(c.Provider),
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		APIKey:     c.APIKey,
		Dimensions: c.Dimensions,
	}
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// DataDir holds the SQLite database. Empty means the default
	// ~/.revloop/data directory.
	DataDir string `toml:"data_dir"`
}

// FiltersConfig tunes the filter chain.
type FiltersConfig struct {
	Confidence    ConfidenceSection    `toml:"confidence"`
	Dedup         DedupSection         `toml:"dedup"`
	Hallucination HallucinationSection `toml:"hallucination"`
	Feedback      FeedbackSection      `toml:"feedback"`
}

// ConfidenceSection tunes the confidence stage.
type ConfidenceSection struct {
	Default  float64 `toml:"default"`
	Security float64 `toml:"security"`
	Style    float64 `toml:"style"`
}

// DedupSection tunes the deduplication stage.
type DedupSection struct {
	Ratio      int `toml:"ratio"`
	LineWindow int `toml:"line_window"`
}

// HallucinationSection tunes evidence verification.
type HallucinationSection struct {
	Strict        bool    `toml:"strict"`
	Penalty       float64 `toml:"penalty"`
	MinConfidence float64 `toml:"min_confidence"`
	LineWindow    int     `toml:"line_window"`
}

// FeedbackSection tunes the feedback learning stage.
type FeedbackSection struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	TopK                int     `toml:"top_k"`
	UpvoteThreshold     int     `toml:"upvote_threshold"`
	DownvoteThreshold   int     `toml:"downvote_threshold"`
	BoostFactor         float64 `toml:"boost_factor"`
	MaxEmbedChars       int     `toml:"max_embed_chars"`
}

// ChainConfig converts the section into the filter chain's configuration.
func (c FiltersConfig) ChainConfig() filters.ChainConfig {
	return filters.ChainConfig{
		Confidence: filters.ConfidenceConfig{
			Default: c.Confidence.Default,
			PerCategory: map[domain.Category]float64{
				domain.CategorySecurity: c.Confidence.Security,
				domain.CategoryStyle:    c.Confidence.Style,
			},
		},
		Dedup: filters.DedupConfig{
			Ratio:      c.Dedup.Ratio,
			LineWindow: c.Dedup.LineWindow,
		},
		Hallucination: filters.HallucinationConfig{
			Strict:        c.Hallucination.Strict,
			Penalty:       c.Hallucination.Penalty,
			MinConfidence: c.Hallucination.MinConfidence,
			LineWindow:    c.Hallucination.LineWindow,
		},
		Feedback: filters.FeedbackConfig{
			SimilarityThreshold: c.Feedback.SimilarityThreshold,
			TopK:                c.Feedback.TopK,
			UpvoteThreshold:     c.Feedback.UpvoteThreshold,
			DownvoteThreshold:   c.Feedback.DownvoteThreshold,
			BoostFactor:         c.Feedback.BoostFactor,
			MaxEmbedChars:       c.Feedback.MaxEmbedChars,
		},
	}
}

// DefaultConfig returns the configuration with standard filter tuning.
func DefaultConfig() Config {
	chain := filters.DefaultChainConfig()
	return Config{
		Filters: FiltersConfig{
			Confidence: ConfidenceSection{
				Default:  chain.Confidence.Default,
				Security: chain.Confidence.PerCategory[domain.CategorySecurity],
				Style:    chain.Confidence.PerCategory[domain.CategoryStyle],
			},
			Dedup: DedupSection{
				Ratio:      chain.Dedup.Ratio,
				LineWindow: chain.Dedup.LineWindow,
			},
			Hallucination: HallucinationSection{
				Strict:        chain.Hallucination.Strict,
				Penalty:       chain.Hallucination.Penalty,
				MinConfidence: chain.Hallucination.MinConfidence,
				LineWindow:    chain.Hallucination.LineWindow,
			},
			Feedback: FeedbackSection{
				SimilarityThreshold: chain.Feedback.SimilarityThreshold,
				TopK:                chain.Feedback.TopK,
				UpvoteThreshold:     chain.Feedback.UpvoteThreshold,
				DownvoteThreshold:   chain.Feedback.DownvoteThreshold,
				BoostFactor:         chain.Feedback.BoostFactor,
				MaxEmbedChars:       chain.Feedback.MaxEmbedChars,
			},
		},
	}
}

// ConfigStore loads and persists the TOML configuration file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	cfg      Config
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.revloop/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".revloop")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		cfg:      DefaultConfig(),
	}

	// Load existing data if file exists
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Config returns a copy of the current configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	// Write with restricted permissions; the file may hold an API key
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file. Values absent from the
// file keep their defaults.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		// No config file yet - run on defaults
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
