// Package semantic ranks agents by embedding similarity to a query, with a
// transparent text-matching fallback whenever the embedding provider is
// unavailable or fails. Provider degradation never surfaces to the caller:
// only an inability to read agents is an error.
package semantic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/domain"
	"github.com/kailas-cloud/agentdex/internal/metrics"
)

// DefaultMinSimilarity discards weak cosine matches on the semantic path.
const DefaultMinSimilarity = 0.3

// DefaultLimit caps results when the caller does not ask for a count.
const DefaultLimit = 10

// Options shape one semantic search request.
type Options struct {
	Limit         int              // 0 = the service's configured default
	MinSimilarity *float64         // nil = the service's configured threshold
	Category      string           // optional skill-category filter
	TrustTier     domain.TrustTier // optional at-or-above tier filter
}

// Service is the semantic matcher.
type Service struct {
	agents   AgentLister
	embedder domain.Embedder // nil = no provider configured, text fallback only
	cache    QueryCache      // nil = no caching
	logger   *zap.Logger

	defaultLimit  int
	minSimilarity float64
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultLimit overrides DefaultLimit for requests that omit a count.
// Non-positive values are ignored.
func WithDefaultLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// WithMinSimilarity overrides DefaultMinSimilarity for requests that omit
// a threshold. Non-positive values are ignored.
func WithMinSimilarity(minSim float64) Option {
	return func(s *Service) {
		if minSim > 0 {
			s.minSimilarity = minSim
		}
	}
}

// WithQueryCache caches query vectors so repeated searches skip the
// provider round-trip.
func WithQueryCache(cache QueryCache) Option {
	return func(s *Service) { s.cache = cache }
}

// New creates a semantic matcher. embedder may be nil: that is the
// canonical "no provider credentials" signal, not an error condition.
func New(agents AgentLister, embedder domain.Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		agents:        agents,
		embedder:      embedder,
		logger:        logger,
		defaultLimit:  DefaultLimit,
		minSimilarity: DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search ranks agents against the query. The response reports which method
// produced it; both methods share one result shape so callers never branch.
func (s *Service) Search(ctx context.Context, rawQuery string, opts Options) (domain.SemanticResponse, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	minSim := s.minSimilarity
	if opts.MinSimilarity != nil {
		minSim = *opts.MinSimilarity
	}

	agents, err := s.agents.ListActive(ctx)
	if err != nil {
		return domain.SemanticResponse{}, fmt.Errorf("list agents: %w", err)
	}

	candidates := filterCandidates(agents, opts)

	queryVec := s.embedQuery(ctx, rawQuery)
	if queryVec == nil {
		metrics.SearchesTotal.WithLabelValues(domain.MethodTextFallback).Inc()
		return s.textFallback(rawQuery, candidates, limit), nil
	}

	metrics.SearchesTotal.WithLabelValues(domain.MethodSemantic).Inc()
	return s.semanticSearch(rawQuery, queryVec, candidates, limit, minSim), nil
}

// embedQuery returns the query vector, or nil when no provider is
// configured or the call fails. A failed call is logged and absorbed; it
// must never hang or raise to the caller.
func (s *Service) embedQuery(ctx context.Context, query string) []float32 {
	if s.embedder == nil {
		return nil
	}
	if s.cache != nil {
		if vec := s.cache.Get(ctx, query); vec != nil {
			return vec
		}
	}
	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, using text fallback", zap.Error(err))
		return nil
	}
	if len(result.Embedding) == 0 {
		return nil
	}
	if s.cache != nil {
		s.cache.Put(ctx, query, result.Embedding)
	}
	return result.Embedding
}

// semanticSearch scores embedded candidates by cosine similarity and fills
// the remaining slots with substring-matched agents that have no embedding
// yet, kept apart as supplements.
func (s *Service) semanticSearch(
	rawQuery string, queryVec []float32,
	candidates []domain.Agent, limit int, minSim float64,
) domain.SemanticResponse {
	lowerQuery := strings.ToLower(rawQuery)

	var embedded, unembedded []*domain.Agent
	for i := range candidates {
		if candidates[i].HasEmbedding() {
			embedded = append(embedded, &candidates[i])
		} else {
			unembedded = append(unembedded, &candidates[i])
		}
	}

	results := make([]domain.SemanticResult, 0, len(embedded))
	for _, a := range embedded {
		sim := domain.CosineSimilarity(queryVec, a.Embedding)
		if sim < minSim {
			continue
		}
		results = append(results, domain.SemanticResult{
			Agent:         a,
			Similarity:    sim,
			MatchedSkills: matchedSkills(a, lowerQuery),
			Method:        domain.MethodSemantic,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}

	var supplements []domain.SemanticResult
	if room := limit - len(results); room > 0 {
		supplements = textMatches(lowerQuery, unembedded, room)
	}

	return domain.SemanticResponse{
		Results:             results,
		Supplements:         supplements,
		Method:              domain.MethodSemantic,
		Query:               rawQuery,
		TotalWithEmbeddings: len(embedded),
		Timestamp:           time.Now().UnixMilli(),
	}
}

// filterCandidates applies the optional category and at-or-above trust
// tier filters shared by both search methods.
func filterCandidates(agents []domain.Agent, opts Options) []domain.Agent {
	category := strings.ToLower(opts.Category)

	out := make([]domain.Agent, 0, len(agents))
	for _, a := range agents {
		if opts.TrustTier != "" && !domain.TierAtLeast(a.TrustTier, opts.TrustTier) {
			continue
		}
		if category != "" && !hasCategory(&a, category) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func hasCategory(a *domain.Agent, lowerCategory string) bool {
	for _, s := range a.Skills {
		if strings.Contains(strings.ToLower(s.Category), lowerCategory) {
			return true
		}
	}
	return false
}

// matchedSkills lists skill names containing the raw query as a substring
// of the skill's name, description, or category. Independent of the
// embedding score, purely for explainability.
func matchedSkills(a *domain.Agent, lowerQuery string) []string {
	if lowerQuery == "" {
		return nil
	}
	var names []string
	for _, s := range a.Skills {
		if strings.Contains(strings.ToLower(s.Name), lowerQuery) ||
			strings.Contains(strings.ToLower(s.Description), lowerQuery) ||
			strings.Contains(strings.ToLower(s.Category), lowerQuery) {
			names = append(names, s.Name)
		}
	}
	return names
}
