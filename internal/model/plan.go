package model

import "encoding/json"

// PlanNode captures one node of a decoded EXPLAIN (FORMAT JSON) plan tree.
// PostgreSQL emits heterogeneous node kinds with overlapping optional
// fields, so a single generic struct with optional members is used instead
// of a type per node kind. Absent fields stay nil and are omitted when
// serialized; they are never coerced to zero.
type PlanNode struct {
	NodeType           *string `json:"node_type"`
	ParentRelationship *string `json:"parent_relationship,omitempty"`
	Strategy           *string `json:"strategy,omitempty"`
	JoinType           *string `json:"join_type,omitempty"`
	ParallelAware      *bool   `json:"parallel_aware,omitempty"`
	AsyncCapable       *bool   `json:"async_capable,omitempty"`

	Relation  *string `json:"relation,omitempty"`
	Schema    *string `json:"schema,omitempty"`
	Alias     *string `json:"alias,omitempty"`
	IndexName *string `json:"index_name,omitempty"`

	StartupCost *float64 `json:"startup_cost,omitempty"`
	TotalCost   *float64 `json:"total_cost,omitempty"`
	PlanRows    *float64 `json:"plan_rows,omitempty"`
	PlanWidth   *float64 `json:"plan_width,omitempty"`

	ActualStartupTimeMs *float64 `json:"actual_startup_time_ms,omitempty"`
	ActualTotalTimeMs   *float64 `json:"actual_total_time_ms,omitempty"`
	ActualRows          *float64 `json:"actual_rows,omitempty"`
	ActualLoops         *float64 `json:"actual_loops,omitempty"`

	Output []string `json:"output,omitempty"`

	Filter      *string  `json:"filter,omitempty"`
	IndexCond   *string  `json:"index_cond,omitempty"`
	RecheckCond *string  `json:"recheck_cond,omitempty"`
	HashCond    *string  `json:"hash_cond,omitempty"`
	JoinFilter  *string  `json:"join_filter,omitempty"`
	MergeCond   *string  `json:"merge_cond,omitempty"`
	SortKey     []string `json:"sort_key,omitempty"`
	GroupKey    []string `json:"group_key,omitempty"`
	HashKey     []string `json:"hash_key,omitempty"`

	ExactHeapTuples *float64 `json:"exact_heap_tuples,omitempty"`

	// Buffers holds only the counters the document actually reported;
	// omitted counters are absent, not zero.
	Buffers map[string]int64 `json:"buffers,omitempty"`

	WorkersPlanned  *float64 `json:"workers_planned,omitempty"`
	WorkersLaunched *float64 `json:"workers_launched,omitempty"`

	Children []*PlanNode   `json:"children"`
	Workers  []*WorkerPlan `json:"workers,omitempty"`
}

// WorkerPlan preserves one parallel-worker record verbatim, plus the
// decoded sub-plan when the worker document carries its own Plan.
type WorkerPlan struct {
	Fields map[string]any
	Plan   *PlanNode
}

// MarshalJSON emits the worker's original fields with the decoded sub-plan
// attached under PlanTree.
func (w WorkerPlan) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(w.Fields)+1)
	for k, v := range w.Fields {
		out[k] = v
	}
	if w.Plan != nil {
		out["PlanTree"] = w.Plan
	}
	return json.Marshal(out)
}

// PlanSummary is the compact comparable digest of one instrumented
// execution. Error is set instead of the other fields when the plan
// document could not be decoded; the underlying query execution status is
// unaffected.
type PlanSummary struct {
	PlanningTimeMs  *float64         `json:"planning_time_ms,omitempty"`
	ExecutionTimeMs *float64         `json:"execution_time_ms,omitempty"`
	Root            *RootDigest      `json:"root,omitempty"`
	Buffers         map[string]int64 `json:"buffers,omitempty"`
	JIT             *JITSummary      `json:"jit,omitempty"`
	PlanTree        *PlanNode        `json:"complete_plan_tree,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// RootDigest flattens the identifying, estimate and actual fields of the
// top-level plan node.
type RootDigest struct {
	NodeType          *string  `json:"node_type"`
	Relation          *string  `json:"relation"`
	Schema            *string  `json:"schema"`
	Alias             *string  `json:"alias"`
	IndexName         *string  `json:"index_name"`
	PlanRows          *float64 `json:"plan_rows"`
	PlanWidth         *float64 `json:"plan_width"`
	TotalCost         *float64 `json:"total_cost"`
	ActualRows        *float64 `json:"actual_rows"`
	ActualTotalTimeMs *float64 `json:"actual_total_time_ms"`
	ActualLoops       *float64 `json:"actual_loops"`
	WorkersPlanned    *float64 `json:"workers_planned"`
	WorkersLaunched   *float64 `json:"workers_launched"`
}

// JITSummary carries the optional just-in-time compilation stats of a run.
// Options and Timing are kept as reported.
type JITSummary struct {
	Functions *float64 `json:"Functions,omitempty"`
	Options   any      `json:"Options,omitempty"`
	Timing    any      `json:"Timing,omitempty"`
}
