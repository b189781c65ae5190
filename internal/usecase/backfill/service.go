// Package backfill batch-computes missing profile embeddings. It is the
// engine's only multi-request workload: bounded batches, concurrent
// fan-out inside a batch, fan-in before advancing, and an explicit pause
// between batches to respect provider rate limits.
package backfill

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/domain"
	"github.com/kailas-cloud/agentdex/internal/metrics"
)

// Defaults for batch sizing and inter-batch pacing.
const (
	DefaultBatchSize = 10
	DefaultPause     = time.Second
)

// AgentStore reads candidates and persists computed vectors. Writes are
// independent single-record overwrites, so concurrent runs are tolerated
// (last write wins).
type AgentStore interface {
	ListActive(ctx context.Context) ([]domain.Agent, error)
	SetEmbedding(ctx context.Context, id string, vec []float32) error
}

// Options configure one backfill run.
type Options struct {
	BatchSize int           // 0 = the service's configured batch size
	Pause     time.Duration // 0 = the service's configured pause
	Limit     int           // 0 = all agents missing an embedding
}

// Report summarizes a run. Processed+Failed equals Total unless the run
// was cancelled at a batch boundary.
type Report struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Service runs embedding backfills.
type Service struct {
	agents   AgentStore
	embedder domain.Embedder
	logger   *zap.Logger

	batchSize int
	pause     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithPacing overrides the default batch size and inter-batch pause for
// runs that do not set their own. Non-positive values are ignored.
func WithPacing(batchSize int, pause time.Duration) Option {
	return func(s *Service) {
		if batchSize > 0 {
			s.batchSize = batchSize
		}
		if pause > 0 {
			s.pause = pause
		}
	}
}

// New creates a backfill service.
func New(agents AgentStore, embedder domain.Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		agents:    agents,
		embedder:  embedder,
		logger:    logger,
		batchSize: DefaultBatchSize,
		pause:     DefaultPause,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run backfills embeddings for active agents lacking one. A single agent's
// failure is counted, never aborts the batch; recovery is simply the next
// run. Cancellation is honored at batch boundaries, in-flight calls finish
// since each write is independently idempotent.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	if s.embedder == nil {
		return Report{}, fmt.Errorf("no embedding provider configured: %w", domain.ErrEmbeddingProviderError)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = s.batchSize
	}
	pause := opts.Pause
	if pause <= 0 {
		pause = s.pause
	}

	agents, err := s.agents.ListActive(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list agents: %w", err)
	}

	var pending []domain.Agent
	for _, a := range agents {
		if !a.HasEmbedding() {
			pending = append(pending, a)
		}
	}
	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}

	report := Report{Total: len(pending)}
	s.logger.Info("starting embedding backfill",
		zap.Int("total", report.Total),
		zap.Int("batch_size", batchSize),
		zap.Duration("pause", pause),
	)

	for start := 0; start < len(pending); start += batchSize {
		if err := ctx.Err(); err != nil {
			s.logger.Info("backfill cancelled",
				zap.Int("processed", report.Processed),
				zap.Int("failed", report.Failed),
			)
			return report, nil
		}

		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		ok := make([]bool, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok[i] = s.embedOne(ctx, &batch[i])
			}(i)
		}
		wg.Wait()

		for _, succeeded := range ok {
			if succeeded {
				report.Processed++
				metrics.BackfillAgentsTotal.WithLabelValues("processed").Inc()
			} else {
				report.Failed++
				metrics.BackfillAgentsTotal.WithLabelValues("failed").Inc()
			}
		}

		if end < len(pending) {
			select {
			case <-ctx.Done():
			case <-time.After(pause):
			}
		}
	}

	s.logger.Info("embedding backfill complete",
		zap.Int("total", report.Total),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// embedOne computes and stores one agent's vector. Failures are logged and
// reported as false, never propagated.
func (s *Service) embedOne(ctx context.Context, a *domain.Agent) bool {
	text := a.ProfileText()
	if text == "" {
		s.logger.Warn("agent has no profile text to embed", zap.String("agent_id", a.ID))
		return false
	}

	result, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding failed", zap.String("agent_id", a.ID), zap.Error(err))
		return false
	}

	if err := s.agents.SetEmbedding(ctx, a.ID, result.Embedding); err != nil {
		s.logger.Warn("storing embedding failed", zap.String("agent_id", a.ID), zap.Error(err))
		return false
	}
	return true
}
