package match

import (
	"context"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// AgentLister reads the candidate set for ranking.
type AgentLister interface {
	ListActive(ctx context.Context) ([]domain.Agent, error)
}
