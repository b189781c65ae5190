package semantic

import (
	"context"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// AgentLister reads the candidate set for similarity search.
type AgentLister interface {
	ListActive(ctx context.Context) ([]domain.Agent, error)
}

// QueryCache serves previously computed query vectors. Both methods are
// best-effort: Get returns nil on a miss and Put may silently drop.
type QueryCache interface {
	Get(ctx context.Context, query string) []float32
	Put(ctx context.Context, query string, vec []float32)
}
