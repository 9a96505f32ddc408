package report

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbench/planbench/internal/model"
)

func TestFinalizeSummary(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Append(model.ExecutionResult{QueryName: "a.sql_round1", Status: model.StatusSuccess, ExecutionTime: 1.0})
	agg.Append(model.ExecutionResult{QueryName: "b.sql_round1", Status: model.StatusSuccess, ExecutionTime: 2.0})
	agg.Append(model.ExecutionResult{QueryName: "c.sql_round1", Status: model.StatusError, ExecutionTime: 9.0})
	agg.AddRoundTime(12.0)

	rep := agg.Finalize("kvm", 0.5)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "kvm", rep.Environment)
	assert.Equal(t, 0.5, rep.ConnectionTime)

	assert.Equal(t, 3, rep.Summary.TotalQueries)
	assert.Equal(t, 2, rep.Summary.SuccessfulQueries)
	assert.Equal(t, 1, rep.Summary.FailedQueries)
	// Failed results never contribute to the timing aggregates.
	assert.Equal(t, 3.0, rep.Summary.TotalExecutionTime)
	assert.Equal(t, 1.5, rep.Summary.AverageQueryTime)

	require.NotNil(t, rep.Summary.LatencyP50Ms)
	require.NotNil(t, rep.Summary.LatencyP99Ms)
	assert.Greater(t, *rep.Summary.LatencyP99Ms, *rep.Summary.LatencyP50Ms)

	assert.Equal(t, 1, rep.Summary.Rounds)
	assert.Equal(t, 12.0, rep.Summary.AverageRoundTime)
	assert.Zero(t, rep.Summary.StdDeviation)
	assert.Equal(t, []float64{12.0}, rep.RoundTimes)
	assert.Len(t, rep.QueryResults, 3)
}

func TestFinalizeAllFailed(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Append(model.ExecutionResult{QueryName: "a.sql_round1", Status: model.StatusError, ExecutionTime: 1.0})

	rep := agg.Finalize("cvm", 0.1)
	assert.Zero(t, rep.Summary.AverageQueryTime)
	assert.Nil(t, rep.Summary.LatencyP50Ms)
}

func TestRoundStats(t *testing.T) {
	agg := NewAggregator(nil)
	for _, v := range []float64{1, 2, 3} {
		agg.AddRoundTime(v)
	}

	stats := agg.RoundStats()
	assert.Equal(t, 3, stats.Rounds)
	assert.Equal(t, 6.0, stats.TotalRoundTime)
	assert.Equal(t, 2.0, stats.AverageRoundTime)
	assert.Equal(t, 1.0, stats.MinRoundTime)
	assert.Equal(t, 3.0, stats.MaxRoundTime)
	// Sample deviation of 1,2,3 is exactly 1.
	assert.InDelta(t, 1.0, stats.StdDeviation, 1e-12)
}

func TestRoundStatsEmpty(t *testing.T) {
	stats := NewAggregator(nil).RoundStats()
	assert.Zero(t, stats.Rounds)
	assert.Zero(t, stats.TotalRoundTime)
	assert.True(t, !math.IsNaN(stats.StdDeviation))
}

func TestRoundCountsSuffixIsStrict(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Append(model.ExecutionResult{QueryName: "q.sql_round1", Status: model.StatusSuccess})
	agg.Append(model.ExecutionResult{QueryName: "q.sql_round10", Status: model.StatusSuccess})
	agg.Append(model.ExecutionResult{QueryName: "q.sql_round1", Status: model.StatusError})

	succeeded, failed := agg.RoundCounts(1)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	succeeded, failed = agg.RoundCounts(10)
	assert.Equal(t, 1, succeeded)
	assert.Zero(t, failed)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	agg := NewAggregator(nil)
	count := int64(3)
	agg.Append(model.ExecutionResult{
		QueryName:     "a.sql_round1",
		Environment:   "kvm",
		Status:        model.StatusSuccess,
		ExecutionTime: 0.25,
		RowCount:      &count,
		Timestamp:     "2026-08-31T10:00:00Z",
	})
	agg.AddRoundTime(0.25)
	rep := agg.Finalize("kvm", 0.05)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, Save(rep, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, loaded.RunID)
	assert.Equal(t, rep.Environment, loaded.Environment)
	assert.Equal(t, rep.Summary, loaded.Summary)
	require.Len(t, loaded.QueryResults, 1)
	assert.Equal(t, "a.sql_round1", loaded.QueryResults[0].QueryName)
	require.NotNil(t, loaded.QueryResults[0].RowCount)
	assert.Equal(t, int64(3), *loaded.QueryResults[0].RowCount)
}

func TestSaveBadPath(t *testing.T) {
	err := Save(model.SessionReport{}, filepath.Join(t.TempDir(), "missing", "report.json"))
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "query_results_cvm_es_20260831_143005.json", DefaultPath("cvm_es", now))
}
