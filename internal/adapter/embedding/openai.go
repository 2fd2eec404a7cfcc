package embedding

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"skillhub/internal/logger"
)

const (
	defaultOllamaURL = "http://localhost:11434/v1"
	maxBatch         = 100
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimension  int
	shortened  bool // dimension is sent with each request
	attempts   int
	retryDelay time.Duration
}

// NewOpenAIEmbedder reads the API key from apiKeyEnv. An empty baseURL
// targets api.openai.com.
func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, attempts int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, errors.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return newCompatibleEmbedder(apiKey, model, baseURL, attempts), nil
}

// NewOllamaEmbedder talks to Ollama's OpenAI-compatible API, which ignores the key.
func NewOllamaEmbedder(model, baseURL string, attempts int) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return newCompatibleEmbedder("ollama", model, baseURL, attempts)
}

func newCompatibleEmbedder(apiKey, model, baseURL string, attempts int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if attempts <= 0 {
		attempts = 1
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimension:  modelDimension(model),
		attempts:   attempts,
		retryDelay: 500 * time.Millisecond,
	}
}

func modelDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 1536
	}
}

// WithDimension asks the API for shortened vectors. Only the
// text-embedding-3 family supports that; other models keep their native size.
func (e *OpenAIEmbedder) WithDimension(dim int) *OpenAIEmbedder {
	if dim > 0 && strings.HasPrefix(e.model, "text-embedding-3") {
		e.dimension = dim
		e.shortened = true
	}
	return e
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatch {
		end := min(i+maxBatch, len(texts))
		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	err := retry.Do(
		func() error {
			req := openai.EmbeddingRequest{
				Input: texts,
				Model: openai.EmbeddingModel(e.model),
			}
			if e.shortened {
				req.Dimensions = e.dimension
			}
			var apiErr error
			resp, apiErr = e.client.CreateEmbeddings(ctx, req)
			return apiErr
		},
		retry.RetryIf(isRetryableError),
		retry.Attempts(uint(e.attempts)),
		retry.Delay(e.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).WithField("max_attempts", e.attempts).Warn("retrying embedding request")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "embedding request failed")
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index >= 0 && data.Index < len(vectors) {
			vectors[data.Index] = data.Embedding
		}
	}
	for i, v := range vectors {
		if v == nil {
			return nil, errors.Errorf("embedding response missing vector for input %d", i)
		}
		if len(v) != e.dimension {
			return nil, errors.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(v))
		}
	}
	return vectors, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
