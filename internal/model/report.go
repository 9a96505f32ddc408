package model

// RoundStats aggregates the per-round wall-clock durations of a run.
// StdDeviation is the sample standard deviation and is zero when fewer than
// two rounds exist.
type RoundStats struct {
	Rounds           int     `json:"rounds"`
	TotalRoundTime   float64 `json:"total_round_time"`
	AverageRoundTime float64 `json:"average_round_time"`
	MinRoundTime     float64 `json:"min_round_time"`
	MaxRoundTime     float64 `json:"max_round_time"`
	StdDeviation     float64 `json:"std_deviation"`
}

// Summary is the session-level digest of a run. Total and average execution
// time cover successful results only.
type Summary struct {
	TotalQueries       int      `json:"total_queries"`
	SuccessfulQueries  int      `json:"successful_queries"`
	FailedQueries      int      `json:"failed_queries"`
	TotalExecutionTime float64  `json:"total_execution_time"`
	AverageQueryTime   float64  `json:"average_query_time"`
	LatencyP50Ms       *float64 `json:"latency_p50_ms,omitempty"`
	LatencyP95Ms       *float64 `json:"latency_p95_ms,omitempty"`
	LatencyP99Ms       *float64 `json:"latency_p99_ms,omitempty"`

	RoundStats
}

// SessionReport is the write-once persisted record of one whole run,
// intended to be diff-able across environments.
type SessionReport struct {
	RunID          string            `json:"run_id"`
	Environment    string            `json:"environment"`
	ConnectionTime float64           `json:"connection_time"`
	Summary        Summary           `json:"summary"`
	RoundTimes     []float64         `json:"round_times"`
	QueryResults   []ExecutionResult `json:"query_results"`
}
