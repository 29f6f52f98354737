package oracle

import (
	"context"
	"fmt"
	"strings"

	"profilematch/internal/config"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Ranker sends a skill query and the serialized corpus to a generative model
// and returns its free-text recommendations unchanged.
type Ranker interface {
	Rank(ctx context.Context, query, corpus string) (string, error)
}

// NewRanker picks the provider named by ORACLE_PROVIDER. Callers should close
// the result when it implements io.Closer.
func NewRanker(ctx context.Context, cfg config.Config) (Ranker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.OracleProvider)) {
	case "", ProviderGemini:
		if err := cfg.Require("GEMINI_API_KEY", cfg.GeminiAPIKey); err != nil {
			return nil, err
		}
		return NewGeminiRanker(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case ProviderOpenAI:
		if err := cfg.Require("OPENAI_API_KEY", cfg.OpenAIAPIKey); err != nil {
			return nil, err
		}
		return NewOpenAIRanker(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.OracleProvider)
	}
}
