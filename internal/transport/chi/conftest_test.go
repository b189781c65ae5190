package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/domain"
	backfilluc "github.com/kailas-cloud/agentdex/internal/usecase/backfill"
	healthuc "github.com/kailas-cloud/agentdex/internal/usecase/health"
	matchuc "github.com/kailas-cloud/agentdex/internal/usecase/match"
	outcomeuc "github.com/kailas-cloud/agentdex/internal/usecase/outcome"
	semanticuc "github.com/kailas-cloud/agentdex/internal/usecase/semantic"
)

// --- Mocks ---

type mockAgents struct {
	agents []domain.Agent
	err    error
}

func (m *mockAgents) ListActive(_ context.Context) ([]domain.Agent, error) {
	return m.agents, m.err
}

func (m *mockAgents) SetEmbedding(_ context.Context, _ string, _ []float32) error {
	return nil
}

type mockOutcomeRepo struct {
	upserted []domain.MatchOutcome
	listed   []domain.MatchOutcome
	err      error
}

func (m *mockOutcomeRepo) Upsert(_ context.Context, o *domain.MatchOutcome) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, *o)
	return nil
}

func (m *mockOutcomeRepo) ListSince(_ context.Context, _ time.Time) ([]domain.MatchOutcome, error) {
	return m.listed, m.err
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

// --- Fixtures ---

type serverFixture struct {
	agents   *mockAgents
	outcomes *mockOutcomeRepo
	server   *Server
}

func newTestServer(t *testing.T, embedder domain.Embedder) *serverFixture {
	t.Helper()

	agents := &mockAgents{agents: []domain.Agent{
		{ID: "ada", Name: "Ada",
			Skills: []domain.Skill{{Name: "Python data analysis", Category: "data", Price: 40}},
			Rating: 4.8},
		{ID: "lou", Name: "Logo Lou",
			Skills: []domain.Skill{{Name: "Logo design", Category: "image", Price: 80}}},
	}}
	outcomes := &mockOutcomeRepo{}

	scorer, err := matchuc.NewScorer(domain.DefaultWeights())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	logger := zap.NewNop()

	srv := NewServer(
		matchuc.New(agents, scorer),
		semanticuc.New(agents, embedder, logger),
		outcomeuc.New(outcomes),
		backfilluc.New(agents, embedder, logger),
		healthuc.New(&mockPinger{}, nil),
		logger,
	)
	return &serverFixture{agents: agents, outcomes: outcomes, server: srv}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
