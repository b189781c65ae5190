// Package agentdex embeds the agent discovery and ranking engine in a Go
// process: deterministic multi-factor recommendations plus semantic search
// with automatic text fallback, backed by Redis or Valkey.
//
//	client, _ := agentdex.New(
//	    agentdex.WithRedis("localhost:6379"),
//	    agentdex.WithEmbedding(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer client.Close()
//
//	results, _ := client.Recommendations(ctx, agentdex.RecommendOptions{
//	    Query: "I need help with Python data analysis",
//	})
//
// Without an embedding credential the client still works: semantic search
// degrades to substring matching and reports method "text-fallback".
package agentdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/db"
	dbRedis "github.com/kailas-cloud/agentdex/internal/db/redis"
	"github.com/kailas-cloud/agentdex/internal/domain"
	agentrepo "github.com/kailas-cloud/agentdex/internal/repository/agent"
	"github.com/kailas-cloud/agentdex/internal/repository/embcache"
	outcomerepo "github.com/kailas-cloud/agentdex/internal/repository/outcome"
	openaiEmb "github.com/kailas-cloud/agentdex/internal/transport/openai"
	backfilluc "github.com/kailas-cloud/agentdex/internal/usecase/backfill"
	matchuc "github.com/kailas-cloud/agentdex/internal/usecase/match"
	outcomeuc "github.com/kailas-cloud/agentdex/internal/usecase/outcome"
	"github.com/kailas-cloud/agentdex/internal/usecase/query"
	semanticuc "github.com/kailas-cloud/agentdex/internal/usecase/semantic"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the agentdex SDK entry point.
type Client struct {
	store       db.Store
	agents      *agentrepo.Repo
	matchSvc    *matchuc.Service
	semanticSvc *semanticuc.Service
	outcomeSvc  *outcomeuc.Service
	backfillSvc *backfilluc.Service
}

// New creates an agentdex Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		weights: domain.DefaultWeights(),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("agentdex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("agentdex: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("agentdex: database not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	scorer, err := matchuc.NewScorer(cfg.weights)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("agentdex: %w", err)
	}

	// nil embedder = text-fallback mode, never an error.
	var embedder domain.Embedder
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	} else if cfg.embeddingAPIKey != "" {
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.embeddingAPIKey,
			BaseURL:    cfg.embeddingBaseURL,
			Model:      cfg.embeddingModel,
			Dimensions: domain.EmbeddingDim,
			Provider:   "openai",
			Logger:     cfg.logger,
		})
	}

	agents := agentrepo.New(store)
	outcomes := outcomerepo.New(store)

	var semanticOpts []semanticuc.Option
	if embedder != nil {
		semanticOpts = append(semanticOpts,
			semanticuc.WithQueryCache(embcache.New(store, embcache.DefaultTTL)))
	}

	return &Client{
		store:       store,
		agents:      agents,
		matchSvc:    matchuc.New(agents, scorer),
		semanticSvc: semanticuc.New(agents, embedder, cfg.logger, semanticOpts...),
		outcomeSvc:  outcomeuc.New(outcomes),
		backfillSvc: backfilluc.New(agents, embedder, cfg.logger),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// UpsertAgent creates or replaces an agent profile. A stored embedding
// survives profile updates untouched until the next backfill run.
func (c *Client) UpsertAgent(ctx context.Context, a Agent) error {
	dom := agentToDomain(a)
	if err := c.agents.Upsert(ctx, &dom); err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

// GetAgent returns an agent profile by ID.
func (c *Client) GetAgent(ctx context.Context, id string) (Agent, error) {
	dom, err := c.agents.Get(ctx, id)
	if err != nil {
		return Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return agentFromDomain(&dom), nil
}

// DeleteAgent removes an agent profile.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	if err := c.agents.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	return nil
}

// Recommendations ranks stored agents against the given criteria using the
// deterministic scorer. Synchronous and deterministic over the stored data.
func (c *Client) Recommendations(ctx context.Context, opts RecommendOptions) ([]MatchResult, error) {
	results, err := c.matchSvc.Recommend(ctx, matchuc.Options{
		Query:    opts.Query,
		Skills:   opts.Skills,
		Category: opts.Category,
		Budget:   opts.Budget,
		Limit:    opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	out := make([]MatchResult, len(results))
	for i, r := range results {
		out[i] = matchResultFromDomain(r)
	}
	return out, nil
}

// SemanticSearch ranks agents by embedding similarity to the query, or by
// substring matching when no provider is available. Provider failures are
// absorbed, never returned.
func (c *Client) SemanticSearch(ctx context.Context, q string, opts SearchOptions) (SearchResponse, error) {
	resp, err := c.semanticSvc.Search(ctx, q, semanticuc.Options{
		Limit:         opts.Limit,
		MinSimilarity: opts.MinSimilarity,
		Category:      opts.Category,
		TrustTier:     domain.TrustTier(opts.TrustTier),
	})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("semantic search: %w", err)
	}
	return searchResponseFromDomain(resp), nil
}

// ParseQuery extracts structured requirements from free text. Pure.
func (c *Client) ParseQuery(text string) Requirement {
	req := query.Parse(text)
	return Requirement{Skills: req.Skills, Category: req.Category, Budget: req.Budget}
}

// RecordOutcome stores how a matched job concluded. Keyed by job ID:
// re-recording overwrites the outcome but never the captured match score.
func (c *Client) RecordOutcome(ctx context.Context, jobID, agentID string, matchScore int, outcome string) error {
	if err := c.outcomeSvc.Record(ctx, jobID, agentID, matchScore, domain.Outcome(outcome)); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// LearningStats aggregates the trailing 90 days of outcomes into score
// buckets. Consumed by operators; never fed back into weights by the engine.
func (c *Client) LearningStats(ctx context.Context) (LearningStats, error) {
	stats, err := c.outcomeSvc.LearningStats(ctx)
	if err != nil {
		return LearningStats{}, fmt.Errorf("learning stats: %w", err)
	}
	return learningStatsFromDomain(stats), nil
}

// BackfillEmbeddings computes and stores missing profile vectors in paced
// batches. Long-running; honors ctx cancellation at batch boundaries, and
// is safe to re-invoke.
func (c *Client) BackfillEmbeddings(ctx context.Context, opts BackfillOptions) (BackfillReport, error) {
	report, err := c.backfillSvc.Run(ctx, backfilluc.Options{
		BatchSize: opts.BatchSize,
		Pause:     opts.Pause,
		Limit:     opts.Limit,
	})
	if err != nil {
		return BackfillReport{}, fmt.Errorf("backfill: %w", err)
	}
	return BackfillReport(report), nil
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}
