package agentdex

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// Embedder lets callers plug a custom embedding provider into the client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	username string
	password string

	embeddingAPIKey  string
	embeddingBaseURL string
	embeddingModel   string
	embedder         Embedder

	weights domain.Weights
	logger  *zap.Logger
}

// WithRedis sets the Redis (or Valkey) addresses to connect to.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithAuth sets database credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithEmbedding configures the OpenAI-compatible embedding provider. An
// empty apiKey leaves the client in text-fallback mode.
func WithEmbedding(apiKey string) Option {
	return func(c *clientConfig) {
		c.embeddingAPIKey = apiKey
	}
}

// WithEmbeddingEndpoint overrides the provider base URL and model, for
// OpenAI-compatible providers other than OpenAI itself.
func WithEmbeddingEndpoint(baseURL, model string) Option {
	return func(c *clientConfig) {
		c.embeddingBaseURL = baseURL
		c.embeddingModel = model
	}
}

// WithEmbedder plugs a custom embedding implementation, overriding
// WithEmbedding.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithWeights overrides the deterministic scorer weights. Invalid weights
// surface from New.
func WithWeights(w Weights) Option {
	return func(c *clientConfig) {
		c.weights = domain.Weights{
			SkillMatch:   w.SkillMatch,
			Category:     w.Category,
			SuccessRate:  w.SuccessRate,
			Rating:       w.Rating,
			ResponseTime: w.ResponseTime,
			PriceMatch:   w.PriceMatch,
		}
	}
}

// WithLogger sets the logger used by the semantic and backfill services.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
