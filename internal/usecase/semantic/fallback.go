package semantic

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// Text-fallback scoring components. The synthetic score lives on the same
// [0,1) scale as cosine similarity so both methods return one shape.
const (
	nameMatchScore     = 0.5
	bioMatchScore      = 0.3
	skillMatchScore    = 0.2
	skillMatchScoreCap = 0.4
	maxFallbackScore   = 0.99
)

// textFallback ranks candidates by substring matching. Used whenever the
// semantic path is unavailable; same filters, same result shape.
func (s *Service) textFallback(rawQuery string, candidates []domain.Agent, limit int) domain.SemanticResponse {
	lowerQuery := strings.ToLower(rawQuery)

	pointers := make([]*domain.Agent, len(candidates))
	withEmbeddings := 0
	for i := range candidates {
		pointers[i] = &candidates[i]
		if candidates[i].HasEmbedding() {
			withEmbeddings++
		}
	}

	return domain.SemanticResponse{
		Results:             textMatches(lowerQuery, pointers, limit),
		Method:              domain.MethodTextFallback,
		Query:               rawQuery,
		TotalWithEmbeddings: withEmbeddings,
		Timestamp:           time.Now().UnixMilli(),
	}
}

// textMatches scores agents whose profile contains the query as a
// substring, sorted by synthetic score descending, truncated to limit.
// Agents with no textual hit at all are excluded; the trust component
// only breaks ties among actual matches.
func textMatches(lowerQuery string, agents []*domain.Agent, limit int) []domain.SemanticResult {
	if lowerQuery == "" || limit <= 0 {
		return nil
	}

	var results []domain.SemanticResult
	for _, a := range agents {
		skills := matchedSkills(a, lowerQuery)

		score := 0.0
		if strings.Contains(strings.ToLower(a.Name), lowerQuery) {
			score += nameMatchScore
		}
		if strings.Contains(strings.ToLower(a.Bio), lowerQuery) {
			score += bioMatchScore
		}
		score += math.Min(float64(len(skills))*skillMatchScore, skillMatchScoreCap)

		if score == 0 {
			continue
		}

		score += a.EffectiveTrustScore() / 200
		score = math.Min(score, maxFallbackScore)

		results = append(results, domain.SemanticResult{
			Agent:         a,
			Similarity:    score,
			MatchedSkills: skills,
			Method:        domain.MethodTextFallback,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
