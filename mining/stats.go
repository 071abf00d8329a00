package mining

// Stats counts the work done by a miner.
type Stats struct {
	NumInputs                  int64 `json:"num_inputs"`
	NumPrunedInputs            int64 `json:"num_pruned_inputs"`
	TotalRecursions            int64 `json:"total_recursions"`
	NonPivotTransitionsSkipped int64 `json:"non_pivot_transitions_skipped"`
	MaxPivotUsed               int64 `json:"max_pivot_used"`
	NumPatterns                int64 `json:"num_patterns"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.NumInputs += other.NumInputs
	s.NumPrunedInputs += other.NumPrunedInputs
	s.TotalRecursions += other.TotalRecursions
	s.NonPivotTransitionsSkipped += other.NonPivotTransitionsSkipped
	s.MaxPivotUsed += other.MaxPivotUsed
	s.NumPatterns += other.NumPatterns
}
