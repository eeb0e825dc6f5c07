package domain

// AIProvider identifies an embedding provider.
type AIProvider string

const (
	AIProviderOllama AIProvider = "ollama"
	AIProviderOpenAI AIProvider = "openai"
)

// EmbeddingSettings configures the embedding provider used for feedback
// similarity. Embeddings are optional: an unconfigured provider disables
// the feedback stage and the review degrades to cold-start behaviour.
type EmbeddingSettings struct {
	// Provider selects the embedding backend.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey authenticates hosted providers. Unused by Ollama.
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// IsConfigured reports whether enough is set to create a service.
func (s *EmbeddingSettings) IsConfigured() bool {
	if s.Provider == "" {
		return false
	}
	if s.Provider == AIProviderOpenAI && s.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingDimensions returns known embedding model dimensions.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
