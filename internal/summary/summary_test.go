package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbench/planbench/internal/parser"
)

const analyzedJoin = `[
  {
    "Plan": {
      "Node Type": "Nested Loop",
      "Join Type": "Inner",
      "Total Cost": 55.0,
      "Actual Rows": 9,
      "Actual Total Time": 3.25,
      "Actual Loops": 1,
      "Shared Hit Blocks": 4,
      "Temp Read Blocks": 1,
      "Plans": [
        {
          "Node Type": "Seq Scan",
          "Relation Name": "name",
          "Shared Hit Blocks": 3,
          "Shared Read Blocks": 5
        },
        {
          "Node Type": "Index Only Scan",
          "Index Name": "name_pkey",
          "Shared Hit Blocks": 2
        }
      ]
    },
    "Planning Time": 0.4,
    "Execution Time": 3.5,
    "JIT": {
      "Functions": 4,
      "Options": {"Inlining": false},
      "Timing": {"Total": 1.2}
    }
  }
]`

func TestSummarize(t *testing.T) {
	entry, err := parser.Parse([]byte(analyzedJoin))
	require.NoError(t, err)

	sum, err := Summarize(entry)
	require.NoError(t, err)

	require.NotNil(t, sum.PlanningTimeMs)
	assert.Equal(t, 0.4, *sum.PlanningTimeMs)
	require.NotNil(t, sum.ExecutionTimeMs)
	assert.Equal(t, 3.5, *sum.ExecutionTimeMs)

	require.NotNil(t, sum.Root)
	require.NotNil(t, sum.Root.NodeType)
	assert.Equal(t, "Nested Loop", *sum.Root.NodeType)
	require.NotNil(t, sum.Root.ActualRows)
	assert.Equal(t, 9.0, *sum.Root.ActualRows)
	assert.Nil(t, sum.Root.Relation)

	// Counters sum elementwise over the whole tree; absent counters
	// contribute nothing.
	assert.Equal(t, map[string]int64{
		"Shared Hit Blocks":  9,
		"Shared Read Blocks": 5,
		"Temp Read Blocks":   1,
	}, sum.Buffers)

	require.NotNil(t, sum.JIT)
	require.NotNil(t, sum.JIT.Functions)
	assert.Equal(t, 4.0, *sum.JIT.Functions)
	assert.NotNil(t, sum.JIT.Timing)

	require.NotNil(t, sum.PlanTree)
	assert.Len(t, sum.PlanTree.Children, 2)
	assert.Empty(t, sum.Error)
}

func TestSummarizeNoBuffers(t *testing.T) {
	sum, err := Summarize(map[string]any{
		"Plan": map[string]any{"Node Type": "Result"},
	})
	require.NoError(t, err)
	assert.Nil(t, sum.Buffers)
	assert.Nil(t, sum.JIT)
	assert.Nil(t, sum.PlanningTimeMs)
}

func TestSummarizeMissingPlan(t *testing.T) {
	_, err := Summarize(map[string]any{"Planning Time": 0.1})
	assert.Error(t, err)

	_, err = Summarize(nil)
	assert.Error(t, err)
}
