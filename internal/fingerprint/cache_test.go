package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1a.sql"), []byte("SELECT 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2b.sql"), []byte("EXPLAIN ANALYZE SELECT 1;"), 0o644))

	src := filepath.Join(dir, "best.csv")
	csv := "query,best_combo,speedup\n1a.sql_round1,ce_cm,1.5\n2b.sql,baseline,1.0\n"
	require.NoError(t, os.WriteFile(src, []byte(csv), 0o644))

	entries, err := GenerateCache(src, dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "CE+CM", entries[0].Scenario)
	assert.Equal(t, "NONE", entries[1].Scenario)
	// Both files normalize to the same query text, so the fingerprints
	// collapse to one value.
	assert.Equal(t, entries[0].Hash, entries[1].Hash)
	assert.Equal(t, Signed(Hash(Normalize("SELECT 1;"))), entries[0].Hash)
}

func TestGenerateCacheMissingSQL(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "best.csv")
	require.NoError(t, os.WriteFile(src, []byte("query,best_combo\nghost.sql,ce\n"), 0o644))

	_, err := GenerateCache(src, dir)
	assert.Error(t, err)
}

func TestGenerateCacheMissingQueryColumn(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "best.csv")
	require.NoError(t, os.WriteFile(src, []byte("name,best_combo\nq.sql,ce\n"), 0o644))

	_, err := GenerateCache(src, dir)
	assert.Error(t, err)
}

func TestWriteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.csv")
	entries := []CacheEntry{
		{Hash: -123456789, Scenario: "CE+CM"},
		{Hash: 42, Scenario: "NONE"},
	}
	require.NoError(t, WriteCache(path, entries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "hash,scenario", lines[0])
	assert.Equal(t, fmt.Sprintf("%d,%s", -123456789, "CE+CM"), lines[1])
	assert.Equal(t, "42,NONE", lines[2])
}
