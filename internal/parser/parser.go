// Package parser decodes PostgreSQL EXPLAIN (FORMAT JSON) documents into
// the canonical plan tree.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/planbench/planbench/internal/model"
)

// BufferCounterNames are the per-node I/O counters carried into the sparse
// buffer map, in the order PostgreSQL documents them.
var BufferCounterNames = []string{
	"Shared Hit Blocks",
	"Shared Read Blocks",
	"Shared Dirtied Blocks",
	"Shared Written Blocks",
	"Local Hit Blocks",
	"Local Read Blocks",
	"Local Dirtied Blocks",
	"Local Written Blocks",
	"Temp Read Blocks",
	"Temp Written Blocks",
}

// Parse decodes a raw EXPLAIN (FORMAT JSON) payload and returns its
// top-level entry: the object carrying Plan, Planning Time, Execution Time
// and optionally JIT.
func Parse(raw []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode explain json: %w", err)
	}
	return FirstEntry(payload)
}

// FirstEntry unwraps the FORMAT JSON envelope, which is a one-element array
// for a single statement but may also be a bare object.
func FirstEntry(payload any) (map[string]any, error) {
	switch v := payload.(type) {
	case []any:
		if len(v) == 0 {
			return nil, errors.New("explain json: empty payload")
		}
		obj, ok := v[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("explain json: unexpected entry type %T", v[0])
		}
		return obj, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("explain json: unexpected top-level type %T", payload)
	}
}

// ExtractTree recursively decodes one plan-document node into a PlanNode,
// preserving child order. Decoding is total over well-formed documents:
// unknown or missing fields yield absent optionals rather than errors, and
// non-object children are skipped.
func ExtractTree(node map[string]any) *model.PlanNode {
	out := &model.PlanNode{
		NodeType:           OptString(node["Node Type"]),
		ParentRelationship: OptString(node["Parent Relationship"]),
		Strategy:           OptString(node["Strategy"]),
		JoinType:           OptString(node["Join Type"]),
		ParallelAware:      OptBool(node["Parallel Aware"]),
		AsyncCapable:       OptBool(node["Async Capable"]),

		Relation:  OptString(node["Relation Name"]),
		Schema:    OptString(node["Schema"]),
		Alias:     OptString(node["Alias"]),
		IndexName: OptString(node["Index Name"]),

		StartupCost: OptFloat(node["Startup Cost"]),
		TotalCost:   OptFloat(node["Total Cost"]),
		PlanRows:    OptFloat(node["Plan Rows"]),
		PlanWidth:   OptFloat(node["Plan Width"]),

		ActualStartupTimeMs: OptFloat(node["Actual Startup Time"]),
		ActualTotalTimeMs:   OptFloat(node["Actual Total Time"]),
		ActualRows:          OptFloat(node["Actual Rows"]),
		ActualLoops:         OptFloat(node["Actual Loops"]),

		Output: asStringSlice(node["Output"]),

		Filter:      OptString(node["Filter"]),
		IndexCond:   OptString(node["Index Cond"]),
		RecheckCond: OptString(node["Recheck Cond"]),
		HashCond:    OptString(node["Hash Cond"]),
		JoinFilter:  OptString(node["Join Filter"]),
		MergeCond:   OptString(node["Merge Cond"]),
		SortKey:     asStringSlice(node["Sort Key"]),
		GroupKey:    asStringSlice(node["Group Key"]),
		HashKey:     asStringSlice(node["Hash Key"]),

		ExactHeapTuples: OptFloat(node["Exact Heap Tuples"]),

		Buffers: extractBuffers(node),

		WorkersPlanned:  OptFloat(node["Workers Planned"]),
		WorkersLaunched: OptFloat(node["Workers Launched"]),
	}

	for _, childVal := range asSlice(node["Plans"]) {
		childMap, ok := childVal.(map[string]any)
		if !ok {
			continue
		}
		out.Children = append(out.Children, ExtractTree(childMap))
	}

	for _, workerVal := range asSlice(node["Workers"]) {
		workerMap, ok := workerVal.(map[string]any)
		if !ok {
			continue
		}
		worker := &model.WorkerPlan{Fields: workerMap}
		if planMap, ok := workerMap["Plan"].(map[string]any); ok {
			worker.Plan = ExtractTree(planMap)
		}
		out.Workers = append(out.Workers, worker)
	}

	return out
}

func extractBuffers(node map[string]any) map[string]int64 {
	var buffers map[string]int64
	for _, name := range BufferCounterNames {
		v, ok := optInt64(node[name])
		if !ok {
			continue
		}
		if buffers == nil {
			buffers = make(map[string]int64)
		}
		buffers[name] = v
	}
	return buffers
}

// OptString returns the value as a string, or nil when absent.
func OptString(val any) *string {
	switch v := val.(type) {
	case string:
		return &v
	case json.Number:
		s := v.String()
		return &s
	default:
		return nil
	}
}

// OptFloat returns the value as a float64, or nil when absent or not
// numeric.
func OptFloat(val any) *float64 {
	switch v := val.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// OptBool returns the value as a bool, or nil when absent.
func OptBool(val any) *bool {
	if v, ok := val.(bool); ok {
		return &v
	}
	return nil
}

func optInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(math.Round(v)), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int64(math.Round(f)), true
	default:
		return 0, false
	}
}

func asSlice(val any) []any {
	if v, ok := val.([]any); ok {
		return v
	}
	return nil
}

func asStringSlice(val any) []string {
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := OptString(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}
