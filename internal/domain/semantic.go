package domain

// Search method tags reported to the caller. The method depends only on
// whether the embedding client was available for the request.
const (
	MethodSemantic     = "semantic"
	MethodTextFallback = "text-fallback"
)

// SemanticResult is one ranked candidate from the semantic matcher. The
// identical shape is returned in both modes so callers never branch on
// the method.
type SemanticResult struct {
	Agent         *Agent
	Similarity    float64  // [0,1], post-threshold
	MatchedSkills []string // skill names containing the raw query, explainability only
	Method        string   // MethodSemantic or MethodTextFallback
}

// SemanticResponse is the full semantic search envelope.
type SemanticResponse struct {
	Results []SemanticResult
	// Supplements are agents without a stored embedding that matched the
	// query by plain substring search. Never mixed into Results.
	Supplements         []SemanticResult
	Method              string
	Query               string
	TotalWithEmbeddings int
	Timestamp           int64 // unix ms
}
