package semantic

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// --- Mocks ---

type mockLister struct {
	agents []domain.Agent
	err    error
}

func (m *mockLister) ListActive(_ context.Context) ([]domain.Agent, error) {
	return m.agents, m.err
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockCache struct {
	vectors map[string][]float32
	puts    int
}

func (m *mockCache) Get(_ context.Context, query string) []float32 {
	return m.vectors[query]
}

func (m *mockCache) Put(_ context.Context, query string, vec []float32) {
	if m.vectors == nil {
		m.vectors = make(map[string][]float32)
	}
	m.vectors[query] = vec
	m.puts++
}

func floatPtr(f float64) *float64 { return &f }

// agents at simple 2-dim vectors keep the cosine math readable
func testAgents() []domain.Agent {
	return []domain.Agent{
		{ID: "aligned", Name: "Data Dan",
			Skills:    []domain.Skill{{Name: "Data analysis", Category: "data"}},
			Embedding: []float32{1, 0}},
		{ID: "sideways", Name: "Side Sam",
			Skills:    []domain.Skill{{Name: "Logo design", Category: "image"}},
			Embedding: []float32{0, 1}},
		{ID: "unembedded", Name: "Data Newbie",
			Bio:    "fresh data analyst",
			Skills: []domain.Skill{{Name: "Data entry", Category: "data"}}},
	}
}

// --- Tests ---

func TestSearch_SemanticPath(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Method != domain.MethodSemantic {
		t.Errorf("expected method %q, got %q", domain.MethodSemantic, resp.Method)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result above threshold, got %d", len(resp.Results))
	}
	if resp.Results[0].Agent.ID != "aligned" {
		t.Errorf("expected 'aligned' first, got %q", resp.Results[0].Agent.ID)
	}
	if resp.Results[0].Similarity < 0.99 {
		t.Errorf("expected similarity ~1, got %g", resp.Results[0].Similarity)
	}
	if resp.TotalWithEmbeddings != 2 {
		t.Errorf("expected 2 embedded candidates, got %d", resp.TotalWithEmbeddings)
	}
}

func TestSearch_SupplementsFillRemainingRoom(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Supplements) != 1 {
		t.Fatalf("expected 1 supplement, got %d", len(resp.Supplements))
	}
	sup := resp.Supplements[0]
	if sup.Agent.ID != "unembedded" {
		t.Errorf("expected the unembedded agent as supplement, got %q", sup.Agent.ID)
	}
	if sup.Method != domain.MethodTextFallback {
		t.Errorf("supplements must be tagged %q, got %q", domain.MethodTextFallback, sup.Method)
	}
	// envelope still reports the semantic method
	if resp.Method != domain.MethodSemantic {
		t.Errorf("expected envelope method %q, got %q", domain.MethodSemantic, resp.Method)
	}
}

func TestSearch_MinSimilarityFiltersWeakMatches(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 1}}}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop())

	// cos([1,1], axis vectors) ~ 0.707: both pass 0.3, neither passes 0.9
	resp, err := svc.Search(context.Background(), "anything", Options{MinSimilarity: floatPtr(0.9)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results above 0.9, got %d", len(resp.Results))
	}

	resp, err = svc.Search(context.Background(), "anything", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected both embedded agents above default threshold, got %d", len(resp.Results))
	}
}

func TestSearch_NilEmbedderFallsBackToText(t *testing.T) {
	svc := New(&mockLister{agents: testAgents()}, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Method != domain.MethodTextFallback {
		t.Errorf("expected method %q, got %q", domain.MethodTextFallback, resp.Method)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 text matches, got %d", len(resp.Results))
	}
	for _, r := range resp.Results {
		if r.Method != domain.MethodTextFallback {
			t.Errorf("result %s tagged %q, want %q", r.Agent.ID, r.Method, domain.MethodTextFallback)
		}
		if r.Similarity >= 1 {
			t.Errorf("fallback score must stay below 1, got %g", r.Similarity)
		}
	}
}

func TestSearch_EmbedderErrorFallsBackToText(t *testing.T) {
	embedder := &mockEmbedder{err: errors.New("provider down")}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}
	if resp.Method != domain.MethodTextFallback {
		t.Errorf("expected fallback after provider error, got %q", resp.Method)
	}
	if embedder.calls != 1 {
		t.Errorf("expected exactly one embed attempt, got %d", embedder.calls)
	}
}

func TestSearch_ListErrorSurfaces(t *testing.T) {
	wantErr := errors.New("connection refused")
	svc := New(&mockLister{err: wantErr}, nil, zap.NewNop())

	_, err := svc.Search(context.Background(), "data", Options{})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped list error, got %v", err)
	}
}

func TestSearch_TrustTierFilter(t *testing.T) {
	agents := []domain.Agent{
		{ID: "low", TrustTier: domain.TierNew, Name: "data one"},
		{ID: "high", TrustTier: domain.TierVerified, Name: "data two"},
	}
	svc := New(&mockLister{agents: agents}, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{TrustTier: domain.TierTrusted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Agent.ID != "high" {
		t.Errorf("expected only the verified agent, got %+v", resp.Results)
	}
}

func TestSearch_CategoryFilter(t *testing.T) {
	svc := New(&mockLister{agents: testAgents()}, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{Category: "image"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range resp.Results {
		if r.Agent.ID != "sideways" {
			t.Errorf("category filter leaked agent %q", r.Agent.ID)
		}
	}
}

func TestTextFallback_ExcludesZeroHitAgents(t *testing.T) {
	agents := []domain.Agent{
		{ID: "hit", Name: "Data Dan"},
		{ID: "miss", Name: "Logo Lou", TrustTier: domain.TierVerified},
	}
	svc := New(&mockLister{agents: agents}, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Agent.ID != "hit" {
		t.Errorf("trust alone must not produce a match, got %+v", resp.Results)
	}
}

func TestTextFallback_TrustBreaksTies(t *testing.T) {
	agents := []domain.Agent{
		{ID: "plain", Name: "Data Plain"},
		{ID: "trusted", Name: "Data Trusted", TrustTier: domain.TierVerified},
	}
	svc := New(&mockLister{agents: agents}, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Agent.ID != "trusted" {
		t.Errorf("expected the trusted agent to rank first, got %q", resp.Results[0].Agent.ID)
	}
}

func TestSearch_MatchedSkills(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := resp.Results[0].MatchedSkills
	if len(got) != 1 || got[0] != "Data analysis" {
		t.Errorf("expected matched skill 'Data analysis', got %v", got)
	}
}

func TestSearch_Limit(t *testing.T) {
	var agents []domain.Agent
	for i := 0; i < 20; i++ {
		agents = append(agents, domain.Agent{
			ID:        string(rune('a' + i)),
			Name:      "data worker",
			Embedding: []float32{1, 0},
		})
	}
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	svc := New(&mockLister{agents: agents}, embedder, zap.NewNop())

	resp, err := svc.Search(context.Background(), "data", Options{Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 5 {
		t.Errorf("expected 5 results, got %d", len(resp.Results))
	}
}

func TestSearch_ConfiguredDefaultLimit(t *testing.T) {
	var agents []domain.Agent
	for i := 0; i < 20; i++ {
		agents = append(agents, domain.Agent{
			ID:        string(rune('a' + i)),
			Name:      "data worker",
			Embedding: []float32{1, 0},
		})
	}
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	svc := New(&mockLister{agents: agents}, embedder, zap.NewNop(), WithDefaultLimit(3))

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("expected the configured default of 3 results, got %d", len(resp.Results))
	}

	// an explicit request count still wins
	resp, err = svc.Search(context.Background(), "data", Options{Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 5 {
		t.Errorf("expected 5 results, got %d", len(resp.Results))
	}
}

func TestSearch_ConfiguredMinSimilarity(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 1}}}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop(), WithMinSimilarity(0.9))

	// cos([1,1], axis vectors) ~ 0.707: below the configured 0.9 floor
	resp, err := svc.Search(context.Background(), "anything", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results above the configured threshold, got %d", len(resp.Results))
	}

	// a request-level threshold still wins
	resp, err = svc.Search(context.Background(), "anything", Options{MinSimilarity: floatPtr(0.5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected both embedded agents above 0.5, got %d", len(resp.Results))
	}
}

func TestSearch_CacheHitSkipsProvider(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0, 1}}}
	cache := &mockCache{vectors: map[string][]float32{"data": {1, 0}}}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop(), WithQueryCache(cache))

	resp, err := svc.Search(context.Background(), "data", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedder.calls != 0 {
		t.Errorf("expected no provider calls on a cache hit, got %d", embedder.calls)
	}
	// the cached vector, not the embedder's, drove the ranking
	if len(resp.Results) == 0 || resp.Results[0].Agent.ID != "aligned" {
		t.Fatalf("expected the aligned agent first, got %+v", resp.Results)
	}
}

func TestSearch_CacheMissPopulates(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	cache := &mockCache{}
	svc := New(&mockLister{agents: testAgents()}, embedder, zap.NewNop(), WithQueryCache(cache))

	for i := 0; i < 2; i++ {
		if _, err := svc.Search(context.Background(), "data", Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if embedder.calls != 1 {
		t.Errorf("expected 1 provider call across repeated searches, got %d", embedder.calls)
	}
	if cache.puts != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.puts)
	}
}
