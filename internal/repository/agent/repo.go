package agent

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// store is the consumer interface for the agent repository (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores agents as one hash per agent under KeyPrefix.
type Repo struct {
	store store
}

// New creates an agent repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert writes the full agent profile. The stored embedding survives a
// profile update untouched: staleness is tolerated until the next backfill
// or explicit recompute.
func (r *Repo) Upsert(ctx context.Context, a *domain.Agent) error {
	fields, err := buildHashFields(a)
	if err != nil {
		return fmt.Errorf("marshal agent %s: %w", a.ID, err)
	}
	if err := r.store.HSet(ctx, agentKey(a.ID), fields); err != nil {
		return fmt.Errorf("hset %s: %w", agentKey(a.ID), err)
	}
	return nil
}

// Get returns an agent by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Agent, error) {
	m, err := r.store.HGetAll(ctx, agentKey(id))
	if err != nil {
		return domain.Agent{}, fmt.Errorf("hgetall %s: %w", agentKey(id), err)
	}
	if len(m) == 0 {
		return domain.Agent{}, domain.ErrAgentNotFound
	}
	return parseHashFields(id, m), nil
}

// ListActive returns every agent not explicitly marked inactive, ordered by
// ID for deterministic iteration.
func (r *Repo) ListActive(ctx context.Context) ([]domain.Agent, error) {
	keys, err := r.store.Scan(ctx, agentPattern())
	if err != nil {
		return nil, fmt.Errorf("scan agents: %w", err)
	}
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch agents: %w", err)
	}

	agents := make([]domain.Agent, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		a := parseHashFields(idFromKey(keys[i]), m)
		if !a.IsActive() {
			continue
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// SetEmbedding overwrites the stored profile vector for one agent. At most
// one vector per agent, last write wins.
func (r *Repo) SetEmbedding(ctx context.Context, id string, vec []float32) error {
	key := agentKey(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrAgentNotFound
	}

	fields := map[string]string{
		fieldVector:     vectorToBytes(vec),
		fieldEmbeddedAt: strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset embedding %s: %w", key, err)
	}
	return nil
}

// Delete removes an agent.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, agentKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", agentKey(id), err)
	}
	return nil
}

func agentKey(id string) string {
	return domain.KeyPrefix + "agent:" + id
}

func agentPattern() string {
	return domain.KeyPrefix + "agent:*"
}

func idFromKey(key string) string {
	return strings.TrimPrefix(key, domain.KeyPrefix+"agent:")
}
