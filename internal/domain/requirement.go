package domain

// Requirement is structured search criteria, built per request from explicit
// parameters or parsed free text. Never persisted.
type Requirement struct {
	Skills   []string // deduped, first-occurrence order, at most 5
	Category string   // empty = no category constraint
	Budget   *float64 // nil = no budget constraint
}

// HasBudget reports whether a budget constraint was supplied.
func (r *Requirement) HasBudget() bool {
	return r.Budget != nil
}
