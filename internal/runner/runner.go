// Package runner drives repeated rounds of the full query set through the
// selected dispatch strategy.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/planbench/planbench/internal/model"
	"github.com/planbench/planbench/internal/report"
)

// QueryRecord pairs a source filename with its SQL text. Records execute in
// lexicographic filename order, and that order is identical for every
// round.
type QueryRecord struct {
	Filename string
	SQL      string
}

// LoadQueries reads every .sql file in dir, sorted by filename. A missing
// directory is fatal to the run before any round starts; unreadable or
// empty files are skipped with a warning.
func LoadQueries(dir string, log *zap.SugaredLogger) ([]QueryRecord, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("query directory: %w", err)
	}

	var records []QueryRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warnf("skip %s: %v", entry.Name(), err)
			continue
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			continue
		}
		records = append(records, QueryRecord{Filename: entry.Name(), SQL: text})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Filename < records[j].Filename })

	log.Infof("found %d SQL files", len(records))
	return records, nil
}

// queryExecutor is the slice of the dispatcher the orchestrator needs.
// *executor.Dispatcher satisfies it.
type queryExecutor interface {
	Execute(ctx context.Context, query, name string) model.ExecutionResult
}

// Orchestrator runs the rounds strictly sequentially: queries are never
// dispatched concurrently and rounds are never parallelized, since
// interleaving would corrupt the cross-environment timing comparison.
type Orchestrator struct {
	dispatch   queryExecutor
	aggregator *report.Aggregator
	iterations int
	log        *zap.SugaredLogger
}

func New(dispatch queryExecutor, aggregator *report.Aggregator, iterations int, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{dispatch: dispatch, aggregator: aggregator, iterations: iterations, log: log}
}

// Run executes every record through the dispatcher for each round, naming
// each result with the record's filename qualified by the round number.
// Context cancellation stops further dispatch; everything collected so far
// stays in the aggregator for persistence.
func (o *Orchestrator) Run(ctx context.Context, records []QueryRecord) error {
	for round := 1; round <= o.iterations; round++ {
		o.log.Infof("==== round %d/%d ====", round, o.iterations)
		roundStart := time.Now()

		for i, rec := range records {
			if err := ctx.Err(); err != nil {
				o.log.Warnf("run interrupted: %v", err)
				return err
			}
			o.log.Infof("[round %d/%d] [%d/%d] %s", round, o.iterations, i+1, len(records), rec.Filename)
			name := fmt.Sprintf("%s_round%d", rec.Filename, round)
			o.aggregator.Append(o.dispatch.Execute(ctx, rec.SQL, name))
		}

		elapsed := time.Since(roundStart).Seconds()
		o.aggregator.AddRoundTime(elapsed)
		succeeded, failed := o.aggregator.RoundCounts(round)
		o.log.Infof("round %d done: %.4fs success=%d error=%d", round, elapsed, succeeded, failed)
	}
	return nil
}
