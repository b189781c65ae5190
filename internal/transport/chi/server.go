// Package chi is the HTTP adapter over the matching engine: a thin JSON
// layer, no rendering, no job lifecycle, no payments.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/domain"
	logpkg "github.com/kailas-cloud/agentdex/internal/logger"
	"github.com/kailas-cloud/agentdex/internal/metrics"
	backfilluc "github.com/kailas-cloud/agentdex/internal/usecase/backfill"
	healthuc "github.com/kailas-cloud/agentdex/internal/usecase/health"
	matchuc "github.com/kailas-cloud/agentdex/internal/usecase/match"
	outcomeuc "github.com/kailas-cloud/agentdex/internal/usecase/outcome"
	"github.com/kailas-cloud/agentdex/internal/usecase/query"
	semanticuc "github.com/kailas-cloud/agentdex/internal/usecase/semantic"
)

// Server exposes the engine's operations over HTTP.
type Server struct {
	match    *matchuc.Service
	semantic *semanticuc.Service
	outcomes *outcomeuc.Service
	backfill *backfilluc.Service
	health   *healthuc.Service
	logger   *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(
	match *matchuc.Service,
	semantic *semanticuc.Service,
	outcomes *outcomeuc.Service,
	backfill *backfilluc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		match:    match,
		semantic: semantic,
		outcomes: outcomes,
		backfill: backfill,
		health:   health,
		logger:   logger,
	}
}

// Router builds the chi router with auth and metrics middleware.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/recommendations", s.handleRecommendations)
		r.Post("/search/semantic", s.handleSemanticSearch)
		r.Get("/query/parse", s.handleParseQuery)
		r.Put("/outcomes/{jobID}", s.handleRecordOutcome)
		r.Get("/outcomes/stats", s.handleLearningStats)
		r.Post("/admin/backfill", s.handleBackfill)
	})

	return r
}

// --- Recommendations ---

type recommendationsRequest struct {
	Query    string   `json:"query"`
	Skills   []string `json:"skills,omitempty"`
	Category string   `json:"category,omitempty"`
	Budget   *float64 `json:"budget,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

type matchResultDTO struct {
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	Score     int            `json:"score"`
	Reasons   []string       `json:"reasons"`
	Breakdown map[string]int `json:"breakdown"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	results, err := s.match.Recommend(r.Context(), matchuc.Options{
		Query:    req.Query,
		Skills:   req.Skills,
		Category: req.Category,
		Budget:   req.Budget,
		Limit:    req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]matchResultDTO, len(results))
	for i, res := range results {
		items[i] = matchResultDTO{
			AgentID:   res.Agent.ID,
			AgentName: res.Agent.Name,
			Score:     res.Score,
			Reasons:   res.Reasons,
			Breakdown: res.Breakdown,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// --- Semantic search ---

type semanticSearchRequest struct {
	Query         string   `json:"query"`
	Limit         int      `json:"limit,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
	Category      string   `json:"category,omitempty"`
	TrustTier     string   `json:"trust_tier,omitempty"`
}

type semanticResultDTO struct {
	AgentID       string   `json:"agent_id"`
	AgentName     string   `json:"agent_name"`
	Similarity    float64  `json:"similarity"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
	Method        string   `json:"method"`
}

type semanticSearchResponse struct {
	Results             []semanticResultDTO `json:"results"`
	Supplements         []semanticResultDTO `json:"supplements,omitempty"`
	Method              string              `json:"method"`
	Query               string              `json:"query"`
	TotalWithEmbeddings int                 `json:"total_with_embeddings"`
	Timestamp           int64               `json:"timestamp"`
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req semanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	tier := domain.TrustTier(req.TrustTier)
	if req.TrustTier != "" && !domain.ValidTier(tier) {
		writeError(w, http.StatusBadRequest, "unknown trust tier: "+req.TrustTier)
		return
	}

	resp, err := s.semantic.Search(r.Context(), req.Query, semanticuc.Options{
		Limit:         req.Limit,
		MinSimilarity: req.MinSimilarity,
		Category:      req.Category,
		TrustTier:     tier,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, semanticSearchResponse{
		Results:             semanticResultsToDTO(resp.Results),
		Supplements:         semanticResultsToDTO(resp.Supplements),
		Method:              resp.Method,
		Query:               resp.Query,
		TotalWithEmbeddings: resp.TotalWithEmbeddings,
		Timestamp:           resp.Timestamp,
	})
}

func semanticResultsToDTO(results []domain.SemanticResult) []semanticResultDTO {
	out := make([]semanticResultDTO, len(results))
	for i, res := range results {
		out[i] = semanticResultDTO{
			AgentID:       res.Agent.ID,
			AgentName:     res.Agent.Name,
			Similarity:    res.Similarity,
			MatchedSkills: res.MatchedSkills,
			Method:        res.Method,
		}
	}
	return out
}

// --- Query parsing ---

func (s *Server) handleParseQuery(w http.ResponseWriter, r *http.Request) {
	req := query.Parse(r.URL.Query().Get("q"))

	resp := map[string]any{
		"skills":   req.Skills,
		"category": nil,
	}
	if req.Category != "" {
		resp["category"] = req.Category
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Outcomes ---

type recordOutcomeRequest struct {
	AgentID    string `json:"agent_id"`
	MatchScore int    `json:"match_score"`
	Outcome    string `json:"outcome"`
}

func (s *Server) handleRecordOutcome(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	var req recordOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := s.outcomes.Record(r.Context(), jobID, req.AgentID, req.MatchScore, domain.Outcome(req.Outcome))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLearningStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.outcomes.LearningStats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window_days": stats.WindowDays,
		"buckets": map[string]any{
			"low":    bucketToDTO(stats.Low),
			"medium": bucketToDTO(stats.Medium),
			"high":   bucketToDTO(stats.High),
		},
	})
}

func bucketToDTO(b domain.ScoreBucket) map[string]any {
	return map[string]any{
		"total":     b.Total,
		"completed": b.Completed,
		"disputed":  b.Disputed,
		"avg_score": b.AvgScore,
	}
}

// --- Backfill ---

type backfillRequest struct {
	BatchSize int `json:"batch_size,omitempty"`
	PauseMS   int `json:"pause_ms,omitempty"`
	Limit     int `json:"limit,omitempty"`
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	report, err := s.backfill.Run(r.Context(), backfilluc.Options{
		BatchSize: req.BatchSize,
		Pause:     time.Duration(req.PauseMS) * time.Millisecond,
		Limit:     req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// --- Error mapping ---

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrOutcomeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidOutcome), errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrInvalidTier), errors.Is(err, domain.ErrInvalidWeights):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logpkg.FromContext(r.Context()).Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
