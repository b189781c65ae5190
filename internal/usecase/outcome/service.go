// Package outcome records how matched jobs concluded and aggregates the
// results into calibration statistics. The stats are read by operators
// weighing manual scorer re-tuning; nothing in this engine feeds them back
// into the weights automatically.
package outcome

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// StatsWindowDays is the trailing window for learning stats.
const StatsWindowDays = 90

// Score bucket boundaries.
const (
	mediumBucketMin = 50
	highBucketMin   = 80
)

// Service records outcomes and serves learning stats.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New creates an outcome service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record persists a match outcome keyed by job ID. Re-recording the same
// job overwrites only the outcome; the match score captured at match time
// is immutable. Safe to retry wholesale.
func (s *Service) Record(ctx context.Context, jobID, agentID string, matchScore int, result domain.Outcome) error {
	if jobID == "" {
		return fmt.Errorf("job id is required")
	}
	if !domain.ValidOutcome(result) {
		return fmt.Errorf("outcome %q: %w", result, domain.ErrInvalidOutcome)
	}
	if matchScore < 0 || matchScore > 100 {
		return fmt.Errorf("match score %d: %w", matchScore, domain.ErrInvalidScore)
	}

	o := domain.MatchOutcome{
		JobID:      jobID,
		AgentID:    agentID,
		MatchScore: matchScore,
		Outcome:    result,
	}
	if err := s.repo.Upsert(ctx, &o); err != nil {
		return fmt.Errorf("record outcome %s: %w", jobID, err)
	}
	return nil
}

// LearningStats aggregates the trailing window of outcomes into three
// score buckets, each with totals, completion and dispute counts, and the
// average captured match score.
func (s *Service) LearningStats(ctx context.Context) (domain.LearningStats, error) {
	since := s.now().AddDate(0, 0, -StatsWindowDays)

	outcomes, err := s.repo.ListSince(ctx, since)
	if err != nil {
		return domain.LearningStats{}, fmt.Errorf("list outcomes: %w", err)
	}

	stats := domain.LearningStats{WindowDays: StatsWindowDays}
	lowSum, mediumSum, highSum := 0, 0, 0

	for _, o := range outcomes {
		var bucket *domain.ScoreBucket
		var sum *int
		switch {
		case o.MatchScore >= highBucketMin:
			bucket, sum = &stats.High, &highSum
		case o.MatchScore >= mediumBucketMin:
			bucket, sum = &stats.Medium, &mediumSum
		default:
			bucket, sum = &stats.Low, &lowSum
		}

		bucket.Total++
		*sum += o.MatchScore
		switch o.Outcome {
		case domain.OutcomeCompleted:
			bucket.Completed++
		case domain.OutcomeDisputed:
			bucket.Disputed++
		}
	}

	if stats.Low.Total > 0 {
		stats.Low.AvgScore = float64(lowSum) / float64(stats.Low.Total)
	}
	if stats.Medium.Total > 0 {
		stats.Medium.AvgScore = float64(mediumSum) / float64(stats.Medium.Total)
	}
	if stats.High.Total > 0 {
		stats.High.AvgScore = float64(highSum) / float64(stats.High.Total)
	}

	return stats, nil
}
