package compmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractComponents(t *testing.T) {
	log := `2026-08-31 10:00:01 INFO starting up
2026-08-31 10:00:02 INFO TEE Adaptive: Auto: CE+CM for query
2026-08-31 10:00:03 DEBUG planner chatter
2026-08-31 10:00:04 INFO TEE Adaptive: Auto: NONE (strong)
2026-08-31 10:00:05 INFO TEE Adaptive: Auto: JN selected
unrelated line
`
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte(log), 0o644))

	components, err := ExtractComponents(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"CE+CM ", "NONE (strong)", "JN "}, components)
}

func TestLoadQueryNamesSortedByTimestamp(t *testing.T) {
	report := `{
  "query_results": [
    {"query_name": "b.sql_round1", "timestamp": "2026-08-31T10:00:02Z"},
    {"query_name": "a.sql_round1", "timestamp": "2026-08-31T10:00:01Z"},
    {"query_name": "", "timestamp": "2026-08-31T10:00:03Z"},
    {"query_name": "c.sql_round1", "timestamp": ""}
  ]
}`
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(report), 0o644))

	names, err := LoadQueryNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.sql_round1", "b.sql_round1"}, names)
}

func TestWriteAndLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.tsv")
	names := []string{"1a.sql_round1", "2b.sql_round1", "3c.sql_round1"}
	components := []string{"CE+CM ", "NONE (strong)"}

	require.NoError(t, WriteMapping(path, names, components))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "1\t1a.sql_round1\tCE+CM \n")
	assert.Contains(t, content, "2\t2b.sql_round1\tNONE (strong)\n")
	assert.Contains(t, content, "# Unmatched queries (no component)\n# 3c.sql_round1\n")

	mapping, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"1a.sql": "ce_cm",
		"2b.sql": "none",
	}, mapping)
}

func TestNormalizeQueryName(t *testing.T) {
	assert.Equal(t, "1a.sql", NormalizeQueryName(" 1a.sql_round1 "))
	assert.Equal(t, "1a.sql", NormalizeQueryName("1a.sql"))
}

func TestLoadBestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.csv")
	csv := "query,best_combo,speedup\n1a.sql_round1,ce+cm,1.4\n2b.sql,ALL,2.0\n3c.sql,baseline,1.0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	best, err := LoadBestCSV(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"1a.sql": "ce_cm",
		"2b.sql": "all_three",
		"3c.sql": "baseline",
	}, best)
}

func TestEvaluate(t *testing.T) {
	best := map[string]string{
		"1a.sql": "ce_cm",     // 110
		"2b.sql": "baseline",  // 000
		"3c.sql": "all_three", // 111
		"4d.sql": "jn",        // 001
		"5e.sql": "ce",        // only in best
	}
	pred := map[string]string{
		"1a.sql": "ce_cm", // exact
		"2b.sql": "ce",    // distance 1
		"3c.sql": "none",  // distance 3
		"4d.sql": "jn",    // exact
		"9z.sql": "cm",    // only in pred
	}

	eval := Evaluate(best, pred)
	assert.Equal(t, 4, eval.Count)
	assert.Equal(t, 2, eval.Exact)
	assert.Equal(t, 0.5, eval.ExactPct)
	assert.Equal(t, 1.0, eval.AvgHamming)
	assert.Equal(t, 3, eval.MaxHamming)
	assert.Equal(t, [4]int{2, 1, 0, 1}, eval.DistCounts)
}

func TestEvaluateSkipsUnknownLabels(t *testing.T) {
	eval := Evaluate(
		map[string]string{"q.sql": "mystery"},
		map[string]string{"q.sql": "ce"},
	)
	assert.Zero(t, eval.Count)
}
