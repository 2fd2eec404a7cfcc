package embedding

import (
	"github.com/pkg/errors"

	"skillhub/config"
	"skillhub/internal/port"
)

// NewFromConfig builds the embedder selected by cfg.Provider.
func NewFromConfig(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "", "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	case "openai":
		e, err := NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, cfg.RetryAttempts)
		if err != nil {
			return nil, err
		}
		return e.WithDimension(cfg.Dimension), nil
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL, cfg.RetryAttempts), nil
	default:
		return nil, errors.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
