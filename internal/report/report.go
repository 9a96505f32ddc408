// Package report owns the run's accumulated results, derives session-level
// statistics, and persists the durable SessionReport.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planbench/planbench/internal/model"
)

// Aggregator owns the append-only, order-preserving result sequence and the
// round-time series for one run. It is created at run start and finalized
// exactly once at run end.
type Aggregator struct {
	results    []model.ExecutionResult
	roundTimes []float64
	latencies  *hdrhistogram.Histogram
	log        *zap.SugaredLogger
}

func NewAggregator(log *zap.SugaredLogger) *Aggregator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Aggregator{
		// Microsecond resolution, up to an hour per query.
		latencies: hdrhistogram.New(1, 3_600_000_000, 3),
		log:       log,
	}
}

// Append records one execution result. Successful latencies additionally
// feed the percentile histogram.
func (a *Aggregator) Append(res model.ExecutionResult) {
	a.results = append(a.results, res)
	if res.Status == model.StatusSuccess && res.ExecutionTime >= 0 {
		if err := a.latencies.RecordValue(int64(res.ExecutionTime * 1e6)); err != nil {
			a.log.Debugf("latency out of histogram range: %v", err)
		}
	}
}

// AddRoundTime records the wall-clock duration of one completed round.
func (a *Aggregator) AddRoundTime(seconds float64) {
	a.roundTimes = append(a.roundTimes, seconds)
}

func (a *Aggregator) Results() []model.ExecutionResult { return a.results }

func (a *Aggregator) RoundTimes() []float64 { return a.roundTimes }

// RoundCounts filters the accumulated results on the round-number suffix
// and returns that round's success and error counts.
func (a *Aggregator) RoundCounts(round int) (succeeded, failed int) {
	suffix := fmt.Sprintf("_round%d", round)
	for _, res := range a.results {
		if !strings.HasSuffix(res.QueryName, suffix) {
			continue
		}
		if res.Status == model.StatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// RoundStats derives the aggregate round timing statistics. The standard
// deviation is the sample deviation and is zero for a single round.
func (a *Aggregator) RoundStats() model.RoundStats {
	n := len(a.roundTimes)
	if n == 0 {
		return model.RoundStats{}
	}

	stats := model.RoundStats{
		Rounds:       n,
		MinRoundTime: a.roundTimes[0],
		MaxRoundTime: a.roundTimes[0],
	}
	for _, t := range a.roundTimes {
		stats.TotalRoundTime += t
		if t < stats.MinRoundTime {
			stats.MinRoundTime = t
		}
		if t > stats.MaxRoundTime {
			stats.MaxRoundTime = t
		}
	}
	stats.AverageRoundTime = stats.TotalRoundTime / float64(n)
	stats.StdDeviation = sampleStdDev(a.roundTimes, stats.AverageRoundTime)
	return stats
}

func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// Finalize assembles the write-once SessionReport. Total and average
// execution time cover successful results only; failed results never
// contribute to the timing average.
func (a *Aggregator) Finalize(environment string, connectTime float64) model.SessionReport {
	sum := model.Summary{TotalQueries: len(a.results)}
	for _, res := range a.results {
		if res.Status == model.StatusSuccess {
			sum.SuccessfulQueries++
			sum.TotalExecutionTime += res.ExecutionTime
		} else {
			sum.FailedQueries++
		}
	}
	if sum.SuccessfulQueries > 0 {
		sum.AverageQueryTime = sum.TotalExecutionTime / float64(sum.SuccessfulQueries)
	}
	if a.latencies.TotalCount() > 0 {
		p50 := float64(a.latencies.ValueAtQuantile(50)) / 1000.0
		p95 := float64(a.latencies.ValueAtQuantile(95)) / 1000.0
		p99 := float64(a.latencies.ValueAtQuantile(99)) / 1000.0
		sum.LatencyP50Ms = &p50
		sum.LatencyP95Ms = &p95
		sum.LatencyP99Ms = &p99
	}
	sum.RoundStats = a.RoundStats()

	return model.SessionReport{
		RunID:          uuid.NewString(),
		Environment:    environment,
		ConnectionTime: connectTime,
		Summary:        sum,
		RoundTimes:     append([]float64(nil), a.roundTimes...),
		QueryResults:   append([]model.ExecutionResult(nil), a.results...),
	}
}

// Save serializes the report as indented JSON. An empty path picks the
// default environment-and-timestamp name in the working directory. Callers
// treat failures as non-fatal: the in-memory results are not lost.
func Save(rep model.SessionReport, path string) error {
	if path == "" {
		path = DefaultPath(rep.Environment, time.Now())
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// DefaultPath names a report after its environment and wall-clock time.
func DefaultPath(environment string, now time.Time) string {
	return fmt.Sprintf("query_results_%s_%s.json", environment, now.Format("20060102_150405"))
}

// Load reads one persisted SessionReport.
func Load(path string) (*model.SessionReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var rep model.SessionReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &rep, nil
}
