package outcome

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

const (
	fieldAgentID    = "agent_id"
	fieldMatchScore = "match_score"
	fieldOutcome    = "outcome"
	fieldRecordedAt = "recorded_at"
	fieldUpdatedAt  = "updated_at"
)

// store is the consumer interface for the outcome repository (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores match outcomes as one hash per job ID.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates an outcome repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// Upsert records an outcome keyed by job ID. The first write fixes agent_id,
// match_score, and recorded_at; later writes for the same job touch only the
// outcome and updated_at fields.
func (r *Repo) Upsert(ctx context.Context, o *domain.MatchOutcome) error {
	key := outcomeKey(o.JobID)

	existing, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall %s: %w", key, err)
	}

	nowMs := r.now().UnixMilli()
	fields := map[string]string{
		fieldOutcome:   string(o.Outcome),
		fieldUpdatedAt: strconv.FormatInt(nowMs, 10),
	}
	if len(existing) == 0 {
		fields[fieldAgentID] = o.AgentID
		fields[fieldMatchScore] = strconv.Itoa(o.MatchScore)
		fields[fieldRecordedAt] = strconv.FormatInt(nowMs, 10)
	}

	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns the outcome recorded for a job.
func (r *Repo) Get(ctx context.Context, jobID string) (domain.MatchOutcome, error) {
	m, err := r.store.HGetAll(ctx, outcomeKey(jobID))
	if err != nil {
		return domain.MatchOutcome{}, fmt.Errorf("hgetall %s: %w", outcomeKey(jobID), err)
	}
	if len(m) == 0 {
		return domain.MatchOutcome{}, domain.ErrOutcomeNotFound
	}
	return parseOutcome(jobID, m), nil
}

// ListSince returns every outcome recorded at or after the given time.
func (r *Repo) ListSince(ctx context.Context, since time.Time) ([]domain.MatchOutcome, error) {
	keys, err := r.store.Scan(ctx, outcomePattern())
	if err != nil {
		return nil, fmt.Errorf("scan outcomes: %w", err)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch outcomes: %w", err)
	}

	cutoff := since.UnixMilli()
	out := make([]domain.MatchOutcome, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		o := parseOutcome(jobIDFromKey(keys[i]), m)
		if o.RecordedAt < cutoff {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func parseOutcome(jobID string, m map[string]string) domain.MatchOutcome {
	score, _ := strconv.Atoi(m[fieldMatchScore])
	recorded, _ := strconv.ParseInt(m[fieldRecordedAt], 10, 64)
	updated, _ := strconv.ParseInt(m[fieldUpdatedAt], 10, 64)
	return domain.MatchOutcome{
		JobID:      jobID,
		AgentID:    m[fieldAgentID],
		MatchScore: score,
		Outcome:    domain.Outcome(m[fieldOutcome]),
		RecordedAt: recorded,
		UpdatedAt:  updated,
	}
}

func outcomeKey(jobID string) string {
	return domain.KeyPrefix + "outcome:" + jobID
}

func outcomePattern() string {
	return domain.KeyPrefix + "outcome:*"
}

func jobIDFromKey(key string) string {
	return key[len(domain.KeyPrefix)+len("outcome:"):]
}
