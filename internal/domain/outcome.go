package domain

// Outcome is the real-world result of a concluded job.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeDisputed  Outcome = "disputed"
	OutcomeCancelled Outcome = "cancelled"
)

// ValidOutcome reports whether o is a known outcome value.
func ValidOutcome(o Outcome) bool {
	switch o {
	case OutcomeCompleted, OutcomeDisputed, OutcomeCancelled:
		return true
	}
	return false
}

// MatchOutcome records how a matched job concluded. One row per job:
// MatchScore is written once at first recording and never changes,
// Outcome may be overwritten by later recordings.
type MatchOutcome struct {
	JobID      string
	AgentID    string
	MatchScore int
	Outcome    Outcome
	RecordedAt int64 // unix ms, first write
	UpdatedAt  int64 // unix ms, last write
}

// ScoreBucket aggregates outcomes whose captured match score fell in one
// band.
type ScoreBucket struct {
	Total     int
	Completed int
	Disputed  int
	AvgScore  float64
}

// LearningStats is the calibration aggregate over a trailing window.
// Nothing in this engine consumes it to adjust Weights; it is read by
// operators deciding on manual re-tuning.
type LearningStats struct {
	WindowDays int
	Low        ScoreBucket // score < 50
	Medium     ScoreBucket // 50–79
	High       ScoreBucket // >= 80
}
