// Package match implements deterministic multi-factor scoring and ranking
// of agents against a structured Requirement. Scoring is pure: no I/O, no
// randomness, no wall-clock reads.
package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// Response-time thresholds for the responsiveness component.
const (
	fastResponseSec = 3600  // full weight at or under one hour
	slowResponseSec = 86400 // half weight at or under one day
)

// Trust and founder bonuses stack on top of the weighted component sum.
// They can push the raw total above 100; the final score is clamped.
const (
	verifiedBonus = 5
	trustedBonus  = 3
	founderBonus  = 2
)

// Breakdown component names.
const (
	componentSkillMatch   = "skill_match"
	componentCategory     = "category_match"
	componentSuccessRate  = "success_rate"
	componentRating       = "rating"
	componentResponseTime = "response_time"
	componentPriceMatch   = "price_match"
	componentBonus        = "bonus"
)

// Scorer scores agents against requirements with a fixed weight
// configuration. Safe for concurrent use.
type Scorer struct {
	weights domain.Weights
}

// NewScorer creates a scorer after validating the weights.
func NewScorer(w domain.Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Weights returns the scorer's weight configuration.
func (s *Scorer) Weights() domain.Weights { return s.weights }

// Score rates one agent against a requirement. The result carries an
// integer score in [0,100], up to four human-readable reasons in a fixed
// order, and the per-component point breakdown.
func (s *Scorer) Score(agent *domain.Agent, req *domain.Requirement) domain.MatchResult {
	w := s.weights
	breakdown := make(map[string]int, 7)
	total := 0.0

	skillOverlap := skillOverlap(agent, req.Skills)
	skillPoints := int(math.Round(skillOverlap * float64(w.SkillMatch)))
	breakdown[componentSkillMatch] = skillPoints
	total += float64(skillPoints)

	categoryHit := categoryMatches(agent, req.Category)
	categoryPoints := 0
	if categoryHit {
		categoryPoints = w.Category
	}
	breakdown[componentCategory] = categoryPoints
	total += float64(categoryPoints)

	successRate := 0.5
	if agent.CompletionRate != nil {
		successRate = *agent.CompletionRate / 100
	}
	successPoints := int(math.Round(successRate * float64(w.SuccessRate)))
	breakdown[componentSuccessRate] = successPoints
	total += float64(successPoints)

	ratingPoints := int(math.Round(agent.Rating / 5 * float64(w.Rating)))
	breakdown[componentRating] = ratingPoints
	total += float64(ratingPoints)

	responsePoints := responseTimePoints(agent.ResponseTimeAvg, w.ResponseTime)
	breakdown[componentResponseTime] = responsePoints
	total += float64(responsePoints)

	priceScore := -1.0
	pricePoints := 0
	if req.HasBudget() {
		priceScore = priceMatchScore(agent, *req.Budget)
		pricePoints = int(math.Round(priceScore * float64(w.PriceMatch)))
	}
	breakdown[componentPriceMatch] = pricePoints
	total += float64(pricePoints)

	bonus := 0
	switch agent.TrustTier {
	case domain.TierVerified:
		bonus += verifiedBonus
	case domain.TierTrusted:
		bonus += trustedBonus
	}
	if agent.IsFounder {
		bonus += founderBonus
	}
	breakdown[componentBonus] = bonus
	total += float64(bonus)

	score := int(math.Round(math.Min(100, total)))

	return domain.MatchResult{
		Agent:     agent,
		Score:     score,
		Reasons:   buildReasons(agent, req, skillOverlap, categoryHit, priceScore),
		Breakdown: breakdown,
	}
}

// skillOverlap returns the fraction of required skills the agent covers,
// in [0,1]. A verbatim occurrence in the skill haystack counts 1, a
// word-level partial hit counts 0.5. Zero required skills is a vacuous
// pass (1); a non-empty requirement against an agent with no skills is 0.
func skillOverlap(agent *domain.Agent, required []string) float64 {
	if len(required) == 0 {
		return 1
	}
	if len(agent.Skills) == 0 {
		return 0
	}

	var b strings.Builder
	for _, s := range agent.Skills {
		b.WriteString(strings.ToLower(s.Name))
		b.WriteString(" ")
		b.WriteString(strings.ToLower(s.Description))
		b.WriteString(" ")
	}
	haystack := b.String()

	sum := 0.0
	for _, skill := range required {
		skill = strings.ToLower(skill)
		if strings.Contains(haystack, skill) {
			sum++
			continue
		}
		for _, word := range strings.Fields(skill) {
			if len(word) > 2 && strings.Contains(haystack, word) {
				sum += 0.5
				break
			}
		}
	}

	return math.Min(1, sum/float64(len(required)))
}

// categoryMatches reports whether any agent skill category contains the
// requested category as a substring. No requested category is a pass.
func categoryMatches(agent *domain.Agent, category string) bool {
	if category == "" {
		return true
	}
	category = strings.ToLower(category)
	for _, s := range agent.Skills {
		if strings.Contains(strings.ToLower(s.Category), category) {
			return true
		}
	}
	return false
}

// responseTimePoints maps the average response time to points: full weight
// within an hour, half within a day, nothing beyond or when unknown.
func responseTimePoints(avg *float64, weight int) int {
	if avg == nil {
		return 0
	}
	switch {
	case *avg <= fastResponseSec:
		return weight
	case *avg <= slowResponseSec:
		return int(math.Round(float64(weight) / 2))
	default:
		return 0
	}
}

// priceMatchScore rates the agent's cheapest skill against the budget, in
// [0,1]. No priced skills is neutral 0.5. Within budget scores 1.0 below
// half the budget and 0.7 otherwise, which keeps suspiciously cheap offers
// from outranking fairly priced ones. Over budget decays as budget/price.
func priceMatchScore(agent *domain.Agent, budget float64) float64 {
	minPrice := 0.0
	found := false
	for _, s := range agent.Skills {
		if s.Price <= 0 {
			continue
		}
		if !found || s.Price < minPrice {
			minPrice = s.Price
			found = true
		}
	}
	if !found {
		return 0.5
	}

	if minPrice <= budget {
		if minPrice <= budget*0.5 {
			return 1.0
		}
		return 0.7
	}
	if minPrice <= 0 {
		return 0
	}
	return math.Max(0, budget/minPrice)
}

// buildReasons emits justification strings in a fixed sequence and keeps
// the first four. The order is part of the scorer's contract.
func buildReasons(
	agent *domain.Agent, req *domain.Requirement,
	skillOverlap float64, categoryHit bool, priceScore float64,
) []string {
	var reasons []string

	if len(req.Skills) > 0 {
		if skillOverlap >= 0.99 {
			reasons = append(reasons, "Strong skill match for your requirements")
		} else if skillOverlap >= 0.5 {
			reasons = append(reasons, "Partial skill match for your requirements")
		}
	}

	if categoryHit && req.Category != "" {
		reasons = append(reasons, fmt.Sprintf("Specializes in %s", req.Category))
	}

	if agent.CompletionRate != nil && *agent.CompletionRate >= 95 {
		reasons = append(reasons, fmt.Sprintf("%.0f%% job completion rate", *agent.CompletionRate))
	}

	if agent.Rating >= 4.5 {
		reasons = append(reasons, fmt.Sprintf("Top rated: %.1f/5", agent.Rating))
	} else if agent.Rating >= 4.0 {
		reasons = append(reasons, fmt.Sprintf("Highly rated: %.1f/5", agent.Rating))
	}

	if agent.ResponseTimeAvg != nil && *agent.ResponseTimeAvg <= fastResponseSec {
		reasons = append(reasons, "Fast responder (under an hour)")
	}

	if req.HasBudget() && priceScore >= 0.9 {
		reasons = append(reasons, "Fits your budget")
	}

	switch agent.TrustTier {
	case domain.TierVerified:
		reasons = append(reasons, "Verified agent")
	case domain.TierTrusted:
		reasons = append(reasons, "Trusted agent")
	}
	if agent.IsFounder {
		reasons = append(reasons, "Founding agent")
	}

	if len(reasons) == 0 {
		return []string{"Available for hire"}
	}
	if len(reasons) > 4 {
		reasons = reasons[:4]
	}
	return reasons
}
