package chi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

func TestRecommendations(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/recommendations",
		`{"query":"I need help with Python data analysis","budget":100}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []matchResultDTO `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].AgentID != "ada" {
		t.Errorf("expected 'ada' ranked first, got %q", resp.Results[0].AgentID)
	}
	if resp.Results[0].Score <= resp.Results[1].Score {
		t.Error("results not sorted by score descending")
	}
	if len(resp.Results[0].Reasons) == 0 || len(resp.Results[0].Reasons) > 4 {
		t.Errorf("expected 1-4 reasons, got %v", resp.Results[0].Reasons)
	}
	if _, ok := resp.Results[0].Breakdown["skill_match"]; !ok {
		t.Error("breakdown should include skill_match")
	}
}

func TestRecommendations_BadBody(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/recommendations", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSemanticSearch_TextFallback(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/search/semantic", `{"query":"python"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp semanticSearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Method != domain.MethodTextFallback {
		t.Errorf("expected method %q, got %q", domain.MethodTextFallback, resp.Method)
	}
	if len(resp.Results) != 1 || resp.Results[0].AgentID != "ada" {
		t.Errorf("expected single text match for ada, got %+v", resp.Results)
	}
}

func TestSemanticSearch_MissingQuery(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/search/semantic", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSemanticSearch_UnknownTier(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/search/semantic",
		`{"query":"python","trust_tier":"platinum"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown tier, got %d", rec.Code)
	}
}

func TestParseQuery(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodGet,
		"/v1/query/parse?q=I+need+help+with+Python+data+analysis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Skills   []string `json:"skills"`
		Category *string  `json:"category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Category == nil || *resp.Category != "data" {
		t.Errorf("expected category 'data', got %v", resp.Category)
	}
	if len(resp.Skills) != 3 {
		t.Errorf("expected 3 skills, got %v", resp.Skills)
	}
}

func TestParseQuery_EmptyCategoryIsNull(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/query/parse?q=gardening+tips", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["category"] != nil {
		t.Errorf("expected null category, got %v", resp["category"])
	}
}

func TestRecordOutcome(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPut, "/v1/outcomes/job-42",
		`{"agent_id":"ada","match_score":87,"outcome":"completed"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(f.outcomes.upserted) != 1 {
		t.Fatalf("expected 1 persisted outcome, got %d", len(f.outcomes.upserted))
	}
	got := f.outcomes.upserted[0]
	if got.JobID != "job-42" || got.MatchScore != 87 || got.Outcome != domain.OutcomeCompleted {
		t.Errorf("unexpected persisted outcome: %+v", got)
	}
}

func TestRecordOutcome_InvalidOutcome(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPut, "/v1/outcomes/job-42",
		`{"agent_id":"ada","match_score":87,"outcome":"pending"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown outcome, got %d", rec.Code)
	}
}

func TestRecordOutcome_ScoreOutOfRange(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPut, "/v1/outcomes/job-42",
		`{"agent_id":"ada","match_score":500,"outcome":"completed"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range score, got %d", rec.Code)
	}
	if len(f.outcomes.upserted) != 0 {
		t.Errorf("out-of-range score must not be persisted, got %d upserts", len(f.outcomes.upserted))
	}
}

func TestLearningStats(t *testing.T) {
	f := newTestServer(t, nil)
	f.outcomes.listed = []domain.MatchOutcome{
		{JobID: "j1", MatchScore: 90, Outcome: domain.OutcomeCompleted},
		{JobID: "j2", MatchScore: 30, Outcome: domain.OutcomeDisputed},
	}
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/outcomes/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		WindowDays int `json:"window_days"`
		Buckets    map[string]struct {
			Total     int     `json:"total"`
			Completed int     `json:"completed"`
			Disputed  int     `json:"disputed"`
			AvgScore  float64 `json:"avg_score"`
		} `json:"buckets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.WindowDays != 90 {
		t.Errorf("expected window 90, got %d", resp.WindowDays)
	}
	if resp.Buckets["high"].Total != 1 || resp.Buckets["high"].Completed != 1 {
		t.Errorf("unexpected high bucket: %+v", resp.Buckets["high"])
	}
	if resp.Buckets["low"].Disputed != 1 {
		t.Errorf("unexpected low bucket: %+v", resp.Buckets["low"])
	}
}

func TestBackfill_NoProvider(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/admin/backfill", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 without a provider, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBackfill_ReportsCounts(t *testing.T) {
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	f := newTestServer(t, embedder)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/admin/backfill",
		`{"batch_size":5,"pause_ms":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report struct {
		Total     int `json:"total"`
		Processed int `json:"processed"`
		Failed    int `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Total != 2 || report.Processed != 2 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestHealth(t *testing.T) {
	f := newTestServer(t, nil)
	router := f.server.Router(nil)

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
}
