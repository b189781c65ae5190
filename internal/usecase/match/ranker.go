package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/agentdex/internal/domain"
	"github.com/kailas-cloud/agentdex/internal/usecase/query"
)

// DefaultLimit is the number of recommendations returned when the caller
// does not ask for a specific count.
const DefaultLimit = 10

// Options shape one recommendation request. Explicit fields override
// whatever Query parses to.
type Options struct {
	Query    string
	Skills   []string
	Category string
	Budget   *float64
	Limit    int
}

// Service ranks stored agents against a requirement.
type Service struct {
	agents       AgentLister
	scorer       *Scorer
	defaultLimit int
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

// New creates a recommendation service.
func New(agents AgentLister, scorer *Scorer, opts ...Option) *Service {
	s := &Service{agents: agents, scorer: scorer, defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend fetches active agents and returns them ranked against the
// resolved requirement. Independent of the semantic matcher; callers may
// chain the two but nothing here requires it.
func (s *Service) Recommend(ctx context.Context, opts Options) ([]domain.MatchResult, error) {
	agents, err := s.agents.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return Rank(agents, ResolveRequirement(opts), s.scorer, limit), nil
}

// ResolveRequirement parses the free-text query first, then lets explicit
// options override the parsed values. Explicit skills go through the same
// normalization as parsed ones.
func ResolveRequirement(opts Options) domain.Requirement {
	req := query.Parse(opts.Query)
	if skills := query.NormalizeSkills(opts.Skills); len(skills) > 0 {
		req.Skills = skills
	}
	if opts.Category != "" {
		req.Category = opts.Category
	}
	if opts.Budget != nil {
		req.Budget = opts.Budget
	}
	return req
}

// Rank scores every agent not explicitly inactive, stable-sorts by score
// descending (ties keep the input order), and truncates to limit. Pure and
// deterministic over its inputs.
func Rank(agents []domain.Agent, req domain.Requirement, scorer *Scorer, limit int) []domain.MatchResult {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]domain.MatchResult, 0, len(agents))
	for i := range agents {
		if !agents[i].IsActive() {
			continue
		}
		results = append(results, scorer.Score(&agents[i], &req))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
