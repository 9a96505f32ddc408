package fingerprint

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CacheEntry is one row of the speedup cache: the signed fingerprint of a
// query and its canonical scenario.
type CacheEntry struct {
	Hash     int32
	Scenario string
}

// GenerateCache reads a best-combination CSV (columns "query" and
// "best_combo"), fingerprints each referenced SQL file, and returns the
// cache rows in source order. A "_round1" suffix on query names is dropped
// to recover the filename. A missing SQL file is an error: a cache with
// holes would silently misroute the consumer.
func GenerateCache(srcCSV, queryDir string) ([]CacheEntry, error) {
	f, err := os.Open(srcCSV)
	if err != nil {
		return nil, fmt.Errorf("open source csv: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read source csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("source csv %s is empty", srcCSV)
	}

	queryIdx, comboIdx := -1, -1
	for i, col := range records[0] {
		switch strings.TrimSpace(col) {
		case "query":
			queryIdx = i
		case "best_combo":
			comboIdx = i
		}
	}
	if queryIdx < 0 {
		return nil, fmt.Errorf("source csv %s has no query column", srcCSV)
	}

	var entries []CacheEntry
	for _, row := range records[1:] {
		if queryIdx >= len(row) {
			continue
		}
		query := strings.TrimSpace(row[queryIdx])
		if query == "" {
			continue
		}
		combo := ""
		if comboIdx >= 0 && comboIdx < len(row) {
			combo = row[comboIdx]
		}

		path := filepath.Join(queryDir, strings.TrimSuffix(query, "_round1"))
		sqlText, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("missing SQL file for %s: %w", query, err)
		}

		entries = append(entries, CacheEntry{
			Hash:     Signed(Hash(Normalize(string(sqlText)))),
			Scenario: CanonicalScenario(combo),
		})
	}
	return entries, nil
}

// WriteCache writes the hash,scenario rows the consumer expects.
func WriteCache(path string, entries []CacheEntry) error {
	var b strings.Builder
	b.WriteString("hash,scenario\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "%d,%s\n", entry.Hash, entry.Scenario)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}
