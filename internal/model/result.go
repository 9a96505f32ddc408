package model

import "encoding/json"

// ExecutionResult status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PhaseTimings decomposes detailed-mode client time into the four
// independently measured phases. The reported total for the result is the
// sum of these fields, not an outer start/end measurement; downstream
// comparisons depend on the decomposition being additive. JSON keys match
// the historical report format so runs stay diff-able across versions.
type PhaseTimings struct {
	CursorCreation float64 `json:"cursor_creation_time"`
	QueryExecution float64 `json:"query_execution_time"`
	ResultFetch    float64 `json:"result_fetch_time"`
	ColumnInfo     float64 `json:"column_info_time"`
}

// Total is the additive execution time of the four phases.
func (t PhaseTimings) Total() float64 {
	return t.CursorCreation + t.QueryExecution + t.ResultFetch + t.ColumnInfo
}

// ExecutionResult is the uniform outcome of dispatching one query in one
// round, regardless of execution mode.
type ExecutionResult struct {
	QueryName      string          `json:"query_name"`
	Environment    string          `json:"environment"`
	ExecutionTime  float64         `json:"execution_time"`
	DetailedTiming *PhaseTimings   `json:"detailed_timing,omitempty"`
	RowCount       *int64          `json:"row_count,omitempty"`
	ColumnNames    []string        `json:"column_names,omitempty"`
	Rows           [][]any         `json:"results,omitempty"`
	Status         string          `json:"status"`
	Error          string          `json:"error,omitempty"`
	Timestamp      string          `json:"timestamp"`
	PlanSummary    *PlanSummary    `json:"plan_summary,omitempty"`
	PlanJSON       json.RawMessage `json:"plan_json,omitempty"`
}
