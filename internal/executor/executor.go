// Package executor dispatches one raw query through one of the run's
// timing/instrumentation strategies and produces a uniform result record.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/planbench/planbench/internal/model"
	"github.com/planbench/planbench/internal/parser"
	"github.com/planbench/planbench/internal/session"
	"github.com/planbench/planbench/internal/summary"
)

// Mode selects how each query is dispatched. The mode is chosen once per
// run; the three strategies are mutually exclusive.
type Mode string

const (
	ModeSimple   Mode = "simple"
	ModeDetailed Mode = "detailed"
	ModeExplain  Mode = "explain"
)

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case ModeSimple, "":
		return ModeSimple, nil
	case ModeDetailed:
		return ModeDetailed, nil
	case ModeExplain:
		return ModeExplain, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected simple, detailed or explain)", name)
	}
}

// ExplainOptions is the option mapping rendered into the instrumentation
// clause. Only the recognized keys are rendered.
type ExplainOptions map[string]any

// explainOptionOrder fixes the clause rendering order.
var explainOptionOrder = []string{"ANALYZE", "BUFFERS", "VERBOSE", "COSTS", "TIMING", "FORMAT"}

// DefaultExplainOptions requests actual runtime statistics and buffer
// counters in a machine-readable document.
func DefaultExplainOptions() ExplainOptions {
	return ExplainOptions{
		"ANALYZE": true,
		"BUFFERS": true,
		"VERBOSE": false,
		"COSTS":   true,
		"TIMING":  true,
		"FORMAT":  "JSON",
	}
}

// BuildExplainSQL renders the option clause and prepends it to the query.
// Boolean options render as the bare name when true and as "NAME false"
// when explicitly disabled; other values render as "NAME value".
func BuildExplainSQL(opts ExplainOptions, query string) string {
	parts := make([]string, 0, len(opts))
	for _, key := range explainOptionOrder {
		val, ok := opts[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case bool:
			if v {
				parts = append(parts, key)
			} else {
				parts = append(parts, key+" false")
			}
		default:
			parts = append(parts, fmt.Sprintf("%s %v", key, v))
		}
	}
	return fmt.Sprintf("EXPLAIN (%s) %s", strings.Join(parts, ", "), query)
}

// DB is the slice of the session the dispatcher needs. *session.Session
// satisfies it.
type DB interface {
	QueryAll(ctx context.Context, sql string) (*session.QueryData, error)
	QueryPhased(ctx context.Context, sql string) (*session.QueryData, model.PhaseTimings, error)
	Explain(ctx context.Context, sql string) ([]byte, error)
}

// Dispatcher turns one raw query into one ExecutionResult using the mode
// selected for the run. Per-query failures are converted into error
// results; they never abort a round.
type Dispatcher struct {
	db            DB
	env           string
	mode          Mode
	opts          ExplainOptions
	storeFullPlan bool
	log           *zap.SugaredLogger
}

func New(db DB, env string, mode Mode, opts ExplainOptions, storeFullPlan bool, log *zap.SugaredLogger) *Dispatcher {
	if opts == nil {
		opts = DefaultExplainOptions()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{db: db, env: env, mode: mode, opts: opts, storeFullPlan: storeFullPlan, log: log}
}

// Execute dispatches one query under its logical name.
func (d *Dispatcher) Execute(ctx context.Context, query, name string) model.ExecutionResult {
	switch d.mode {
	case ModeDetailed:
		return d.executeDetailed(ctx, query, name)
	case ModeExplain:
		return d.executeExplain(ctx, query, name)
	default:
		return d.executeSimple(ctx, query, name)
	}
}

func (d *Dispatcher) executeSimple(ctx context.Context, query, name string) model.ExecutionResult {
	start := time.Now()
	data, err := d.db.QueryAll(ctx, query)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return d.errorResult(name, elapsed, err)
	}

	count := int64(len(data.Rows))
	d.log.Infof("OK %s: %.4fs rows=%d", name, elapsed, count)
	return model.ExecutionResult{
		QueryName:     name,
		Environment:   d.env,
		ExecutionTime: elapsed,
		RowCount:      &count,
		ColumnNames:   data.Columns,
		Rows:          data.Rows,
		Status:        model.StatusSuccess,
		Timestamp:     timestamp(),
	}
}

func (d *Dispatcher) executeDetailed(ctx context.Context, query, name string) model.ExecutionResult {
	start := time.Now()
	data, phases, err := d.db.QueryPhased(ctx, query)
	if err != nil {
		return d.errorResult(name, time.Since(start).Seconds(), err)
	}

	// The reported time is the sum of the four phases, not the outer timer.
	total := phases.Total()
	count := int64(len(data.Rows))
	d.log.Infof("OK %s: total=%.4fs exec=%.4fs fetch=%.4fs rows=%d",
		name, total, phases.QueryExecution, phases.ResultFetch, count)
	return model.ExecutionResult{
		QueryName:      name,
		Environment:    d.env,
		ExecutionTime:  total,
		DetailedTiming: &phases,
		RowCount:       &count,
		ColumnNames:    data.Columns,
		Rows:           data.Rows,
		Status:         model.StatusSuccess,
		Timestamp:      timestamp(),
	}
}

// executeExplain issues one EXPLAIN statement that both plans and executes
// the query. The query's own rows are never re-fetched: re-executing would
// double the work and corrupt cross-environment timing comparisons.
func (d *Dispatcher) executeExplain(ctx context.Context, query, name string) model.ExecutionResult {
	start := time.Now()
	payload, err := d.db.Explain(ctx, BuildExplainSQL(d.opts, query))
	clientElapsed := time.Since(start).Seconds()
	if err != nil {
		return d.errorResult(name, clientElapsed, err)
	}

	sum := summarizePayload(payload)

	res := model.ExecutionResult{
		QueryName:   name,
		Environment: d.env,
		Status:      model.StatusSuccess,
		Timestamp:   timestamp(),
		PlanSummary: sum,
	}
	// Server-reported execution time wins; client wall time is only the
	// fallback when the document did not carry one.
	if sum.ExecutionTimeMs != nil {
		res.ExecutionTime = *sum.ExecutionTimeMs / 1000.0
	} else {
		res.ExecutionTime = clientElapsed
	}
	if sum.Root != nil && sum.Root.ActualRows != nil {
		count := int64(*sum.Root.ActualRows)
		res.RowCount = &count
	}
	if d.storeFullPlan {
		res.PlanJSON = json.RawMessage(payload)
	}

	d.log.Infof("OK %s: planning=%s execution=%s (client %.4fs)",
		name, formatMs(sum.PlanningTimeMs), formatMs(sum.ExecutionTimeMs), clientElapsed)
	return res
}

func (d *Dispatcher) errorResult(name string, elapsed float64, err error) model.ExecutionResult {
	d.log.Warnf("FAIL %s: %v", name, err)
	return model.ExecutionResult{
		QueryName:     name,
		Environment:   d.env,
		ExecutionTime: elapsed,
		Status:        model.StatusError,
		Error:         err.Error(),
		Timestamp:     timestamp(),
	}
}

// summarizePayload never fails the query: a document the summarizer cannot
// decode degrades to a summary-level error field.
func summarizePayload(payload []byte) *model.PlanSummary {
	entry, err := parser.Parse(payload)
	if err != nil {
		return &model.PlanSummary{Error: err.Error()}
	}
	sum, err := summary.Summarize(entry)
	if err != nil {
		return &model.PlanSummary{Error: err.Error()}
	}
	return sum
}

func formatMs(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3fms", *v)
}

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}
