package domain

import "strings"

// TrustTier is an ordered reputation level. Higher tiers unlock score bonuses
// and can be used as an at-or-above search filter.
type TrustTier string

const (
	TierNew         TrustTier = "new"
	TierRising      TrustTier = "rising"
	TierEstablished TrustTier = "established"
	TierTrusted     TrustTier = "trusted"
	TierVerified    TrustTier = "verified"
)

// tierOrder defines the tier ranking, lowest first.
var tierOrder = []TrustTier{TierNew, TierRising, TierEstablished, TierTrusted, TierVerified}

// TierRank returns the position of t in the tier ordering, or -1 for an
// unknown tier.
func TierRank(t TrustTier) int {
	for i, tier := range tierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// TierAtLeast reports whether t ranks at or above min. Unknown tiers never
// satisfy a filter.
func TierAtLeast(t, min TrustTier) bool {
	tr, mr := TierRank(t), TierRank(min)
	if tr < 0 || mr < 0 {
		return false
	}
	return tr >= mr
}

// ValidTier reports whether t is one of the five known tiers.
func ValidTier(t TrustTier) bool {
	return TierRank(t) >= 0
}

// Skill is a single priced service offered by an agent.
type Skill struct {
	Name        string
	Description string
	Category    string
	Price       float64
}

// Agent is a marketplace seller offering one or more priced skills.
//
// Active is a pointer: an absent value means active, only an explicit false
// excludes the agent from search. CompletionRate and ResponseTimeAvg are
// pointers for the same reason: absence is meaningful to the scorer.
type Agent struct {
	ID              string
	Name            string
	Bio             string
	Tagline         string
	Skills          []Skill
	Rating          float64  // 0–5
	CompletionRate  *float64 // 0–100
	ResponseTimeAvg *float64 // seconds
	TrustTier       TrustTier
	TrustScore      float64 // 0–100 reputation number
	IsFounder       bool
	Active          *bool
	Embedding       []float32 // nil when none stored
	EmbeddedAt      int64     // unix ms of last embedding computation, 0 when none
}

// IsActive reports whether the agent should be considered for matching.
// Absence of the flag counts as active.
func (a *Agent) IsActive() bool {
	return a.Active == nil || *a.Active
}

// HasEmbedding reports whether a stored profile vector exists.
func (a *Agent) HasEmbedding() bool {
	return len(a.Embedding) > 0
}

// EffectiveTrustScore returns the stored reputation number, deriving one
// from the trust tier when nothing was recorded.
func (a *Agent) EffectiveTrustScore() float64 {
	if a.TrustScore > 0 {
		return a.TrustScore
	}
	if r := TierRank(a.TrustTier); r > 0 {
		return float64(r) * 25
	}
	return 0
}

// ProfileText composes the text blob that gets embedded for an agent:
// name, bio, tagline, every skill, and a categories summary line.
// Returns "" when the agent has no describable content.
func (a *Agent) ProfileText() string {
	var b strings.Builder
	appendLine := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s)
	}

	appendLine(a.Name)
	appendLine(a.Bio)
	appendLine(a.Tagline)

	seen := make(map[string]struct{})
	var categories []string
	for _, s := range a.Skills {
		parts := make([]string, 0, 3)
		if s.Name != "" {
			parts = append(parts, s.Name)
		}
		if s.Description != "" {
			parts = append(parts, s.Description)
		}
		if s.Category != "" {
			parts = append(parts, s.Category)
			if _, ok := seen[s.Category]; !ok {
				seen[s.Category] = struct{}{}
				categories = append(categories, s.Category)
			}
		}
		appendLine(strings.Join(parts, ". "))
	}

	if len(categories) > 0 {
		appendLine("Specializes in: " + strings.Join(categories, ", "))
	}

	return b.String()
}
