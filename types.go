package agentdex

import (
	"time"

	"github.com/kailas-cloud/agentdex/internal/domain"
	backfilluc "github.com/kailas-cloud/agentdex/internal/usecase/backfill"
)

// Trust tiers, lowest to highest.
const (
	TierNew         = string(domain.TierNew)
	TierRising      = string(domain.TierRising)
	TierEstablished = string(domain.TierEstablished)
	TierTrusted     = string(domain.TierTrusted)
	TierVerified    = string(domain.TierVerified)
)

// Outcome values for RecordOutcome.
const (
	OutcomeCompleted = string(domain.OutcomeCompleted)
	OutcomeDisputed  = string(domain.OutcomeDisputed)
	OutcomeCancelled = string(domain.OutcomeCancelled)
)

// Search method tags reported by SemanticSearch.
const (
	MethodSemantic     = domain.MethodSemantic
	MethodTextFallback = domain.MethodTextFallback
)

// Skill is a single priced service offered by an agent.
type Skill struct {
	Name        string
	Description string
	Category    string
	Price       float64
}

// Agent is a marketplace seller profile. Nil optional fields mean unknown;
// a nil Active means active.
type Agent struct {
	ID              string
	Name            string
	Bio             string
	Tagline         string
	Skills          []Skill
	Rating          float64
	CompletionRate  *float64
	ResponseTimeAvg *float64
	TrustTier       string
	TrustScore      float64
	IsFounder       bool
	Active          *bool
	HasEmbedding    bool // read-only, set on reads
}

// Weights configures the deterministic scorer for WithWeights.
type Weights struct {
	SkillMatch   int
	Category     int
	SuccessRate  int
	Rating       int
	ResponseTime int
	PriceMatch   int
}

// DefaultWeights returns the documented default scoring weights.
func DefaultWeights() Weights {
	return Weights(domain.DefaultWeights())
}

// Requirement is the structured form of a search query.
type Requirement struct {
	Skills   []string
	Category string
	Budget   *float64
}

// RecommendOptions shape one Recommendations call. Explicit fields
// override whatever Query parses to.
type RecommendOptions struct {
	Query    string
	Skills   []string
	Category string
	Budget   *float64
	Limit    int
}

// MatchResult is one scored candidate with its justification.
type MatchResult struct {
	AgentID   string
	AgentName string
	Score     int
	Reasons   []string
	Breakdown map[string]int
}

// SearchOptions shape one SemanticSearch call.
type SearchOptions struct {
	Limit         int
	MinSimilarity *float64
	Category      string
	TrustTier     string
}

// SemanticResult is one similarity-ranked candidate.
type SemanticResult struct {
	AgentID       string
	AgentName     string
	Similarity    float64
	MatchedSkills []string
	Method        string
}

// SearchResponse is the semantic search envelope. Supplements are
// substring matches for agents that have no embedding yet; they are never
// mixed into Results.
type SearchResponse struct {
	Results             []SemanticResult
	Supplements         []SemanticResult
	Method              string
	Query               string
	TotalWithEmbeddings int
	Timestamp           int64
}

// BackfillOptions shape one BackfillEmbeddings run.
type BackfillOptions struct {
	BatchSize int
	Pause     time.Duration
	Limit     int
}

// BackfillReport summarizes a backfill run.
type BackfillReport struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ScoreBucket aggregates outcomes for one score band.
type ScoreBucket struct {
	Total     int
	Completed int
	Disputed  int
	AvgScore  float64
}

// LearningStats is the trailing-window calibration aggregate.
type LearningStats struct {
	WindowDays int
	Low        ScoreBucket
	Medium     ScoreBucket
	High       ScoreBucket
}

// --- converters ---

func agentToDomain(a Agent) domain.Agent {
	skills := make([]domain.Skill, len(a.Skills))
	for i, s := range a.Skills {
		skills[i] = domain.Skill(s)
	}
	return domain.Agent{
		ID:              a.ID,
		Name:            a.Name,
		Bio:             a.Bio,
		Tagline:         a.Tagline,
		Skills:          skills,
		Rating:          a.Rating,
		CompletionRate:  a.CompletionRate,
		ResponseTimeAvg: a.ResponseTimeAvg,
		TrustTier:       domain.TrustTier(a.TrustTier),
		TrustScore:      a.TrustScore,
		IsFounder:       a.IsFounder,
		Active:          a.Active,
	}
}

func agentFromDomain(a *domain.Agent) Agent {
	skills := make([]Skill, len(a.Skills))
	for i, s := range a.Skills {
		skills[i] = Skill(s)
	}
	return Agent{
		ID:              a.ID,
		Name:            a.Name,
		Bio:             a.Bio,
		Tagline:         a.Tagline,
		Skills:          skills,
		Rating:          a.Rating,
		CompletionRate:  a.CompletionRate,
		ResponseTimeAvg: a.ResponseTimeAvg,
		TrustTier:       string(a.TrustTier),
		TrustScore:      a.TrustScore,
		IsFounder:       a.IsFounder,
		Active:          a.Active,
		HasEmbedding:    a.HasEmbedding(),
	}
}

func matchResultFromDomain(r domain.MatchResult) MatchResult {
	return MatchResult{
		AgentID:   r.Agent.ID,
		AgentName: r.Agent.Name,
		Score:     r.Score,
		Reasons:   r.Reasons,
		Breakdown: r.Breakdown,
	}
}

func semanticResultFromDomain(r domain.SemanticResult) SemanticResult {
	return SemanticResult{
		AgentID:       r.Agent.ID,
		AgentName:     r.Agent.Name,
		Similarity:    r.Similarity,
		MatchedSkills: r.MatchedSkills,
		Method:        r.Method,
	}
}

func searchResponseFromDomain(resp domain.SemanticResponse) SearchResponse {
	results := make([]SemanticResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = semanticResultFromDomain(r)
	}
	supplements := make([]SemanticResult, len(resp.Supplements))
	for i, r := range resp.Supplements {
		supplements[i] = semanticResultFromDomain(r)
	}
	return SearchResponse{
		Results:             results,
		Supplements:         supplements,
		Method:              resp.Method,
		Query:               resp.Query,
		TotalWithEmbeddings: resp.TotalWithEmbeddings,
		Timestamp:           resp.Timestamp,
	}
}

func learningStatsFromDomain(s domain.LearningStats) LearningStats {
	return LearningStats{
		WindowDays: s.WindowDays,
		Low:        ScoreBucket(s.Low),
		Medium:     ScoreBucket(s.Medium),
		High:       ScoreBucket(s.High),
	}
}

// ensure the usecase Report and the public alias stay field-compatible
var _ = backfilluc.Report(BackfillReport{})
