package domain

import "fmt"

// Default scoring weights. The six components sum to a 100-point budget
// (price only participates when a budget is given); trust and founder
// bonuses stack on top and the final score is clamped to 100.
const (
	DefaultSkillMatchWeight   = 40
	DefaultCategoryWeight     = 20
	DefaultSuccessRateWeight  = 15
	DefaultRatingWeight       = 15
	DefaultResponseTimeWeight = 10
	DefaultPriceMatchWeight   = 10
)

// Weights configures the deterministic scorer. Construct via NewWeights or
// DefaultWeights; all fields must be non-negative.
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
	return Weights{
		SkillMatch:   DefaultSkillMatchWeight,
		Category:     DefaultCategoryWeight,
		SuccessRate:  DefaultSuccessRateWeight,
		Rating:       DefaultRatingWeight,
		ResponseTime: DefaultResponseTimeWeight,
		PriceMatch:   DefaultPriceMatchWeight,
	}
}

// NewWeights validates and returns a Weights configuration.
func NewWeights(skillMatch, category, successRate, rating, responseTime, priceMatch int) (Weights, error) {
	w := Weights{
		SkillMatch:   skillMatch,
		Category:     category,
		SuccessRate:  successRate,
		Rating:       rating,
		ResponseTime: responseTime,
		PriceMatch:   priceMatch,
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate rejects negative weight components.
func (w Weights) Validate() error {
	named := []struct {
		name  string
		value int
	}{
		{"skill_match", w.SkillMatch},
		{"category", w.Category},
		{"success_rate", w.SuccessRate},
		{"rating", w.Rating},
		{"response_time", w.ResponseTime},
		{"price_match", w.PriceMatch},
	}
	for _, c := range named {
		if c.value < 0 {
			return fmt.Errorf("weight %s is negative (%d): %w", c.name, c.value, ErrInvalidWeights)
		}
	}
	return nil
}

// MatchResult is one scored candidate from the deterministic ranker.
type MatchResult struct {
	Agent     *Agent
	Score     int            // 0–100
	Reasons   []string       // at most 4, fixed generation order
	Breakdown map[string]int // component name → points awarded
}
