// Package summary builds the compact comparable digest of one instrumented
// execution from a decoded plan document.
package summary

import (
	"errors"

	"github.com/planbench/planbench/internal/model"
	"github.com/planbench/planbench/internal/parser"
)

// Summarize extracts the digest from one top-level EXPLAIN entry: session
// timings, root-node stats, aggregated buffer counters over the whole tree,
// optional JIT info, and the fully decoded plan tree. Callers convert the
// error into a summary-level error field; a malformed document degrades one
// query's summary without affecting the round.
func Summarize(entry map[string]any) (*model.PlanSummary, error) {
	if entry == nil {
		return nil, errors.New("summarize: empty plan document")
	}
	planMap, ok := entry["Plan"].(map[string]any)
	if !ok {
		return nil, errors.New("summarize: missing Plan root")
	}

	tree := parser.ExtractTree(planMap)

	return &model.PlanSummary{
		PlanningTimeMs:  parser.OptFloat(entry["Planning Time"]),
		ExecutionTimeMs: parser.OptFloat(entry["Execution Time"]),
		Root:            rootDigest(tree),
		Buffers:         AggregateBuffers(tree),
		JIT:             jitDigest(entry["JIT"]),
		PlanTree:        tree,
	}, nil
}

// AggregateBuffers sums each named buffer counter over every node of the
// tree; nodes where a counter is absent contribute nothing. Returns nil
// when no node reported any counter.
func AggregateBuffers(root *model.PlanNode) map[string]int64 {
	agg := make(map[string]int64)
	var walk func(*model.PlanNode)
	walk = func(n *model.PlanNode) {
		for name, v := range n.Buffers {
			agg[name] += v
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	if len(agg) == 0 {
		return nil
	}
	return agg
}

func rootDigest(root *model.PlanNode) *model.RootDigest {
	return &model.RootDigest{
		NodeType:          root.NodeType,
		Relation:          root.Relation,
		Schema:            root.Schema,
		Alias:             root.Alias,
		IndexName:         root.IndexName,
		PlanRows:          root.PlanRows,
		PlanWidth:         root.PlanWidth,
		TotalCost:         root.TotalCost,
		ActualRows:        root.ActualRows,
		ActualTotalTimeMs: root.ActualTotalTimeMs,
		ActualLoops:       root.ActualLoops,
		WorkersPlanned:    root.WorkersPlanned,
		WorkersLaunched:   root.WorkersLaunched,
	}
}

func jitDigest(val any) *model.JITSummary {
	jit, ok := val.(map[string]any)
	if !ok {
		return nil
	}
	out := &model.JITSummary{
		Functions: parser.OptFloat(jit["Functions"]),
		Options:   jit["Options"],
	}
	if timing, ok := jit["Timing"]; ok {
		out.Timing = timing
	}
	return out
}
