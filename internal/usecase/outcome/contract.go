package outcome

import (
	"context"
	"time"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// Repository is the outcome persistence contract.
type Repository interface {
	Upsert(ctx context.Context, o *domain.MatchOutcome) error
	ListSince(ctx context.Context, since time.Time) ([]domain.MatchOutcome, error)
}
