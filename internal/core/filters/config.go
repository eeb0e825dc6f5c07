package filters

// ChainConfig aggregates the per-stage configurations so callers can load
// and pass the whole chain's tuning as one value.
type ChainConfig struct {
	Confidence    ConfidenceConfig
	Dedup         DedupConfig
	Hallucination HallucinationConfig
	Feedback      FeedbackConfig
}

// DefaultChainConfig returns the standard tuning for every stage.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		Confidence:    DefaultConfidenceConfig(),
		Dedup:         DefaultDedupConfig(),
		Hallucination: DefaultHallucinationConfig(),
		Feedback:      DefaultFeedbackConfig(),
	}
}
