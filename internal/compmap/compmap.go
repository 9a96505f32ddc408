// Package compmap pairs query names from a persisted run with the
// component choices scraped from the selector's execution log, and scores
// such mappings against a reference best-choice table.
package compmap

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// componentRe pulls the component choice from each selector log line.
var componentRe = regexp.MustCompile(`TEE Adaptive: Auto: ([A-Z+ ]+(?:\(strong\))?)`)

var parenRe = regexp.MustCompile(`\(.*?\)`)

// ExtractComponents returns the chronologically ordered component choices
// found in an execution log.
func ExtractComponents(logPath string) ([]string, error) {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	matches := componentRe.FindAllStringSubmatch(string(data), -1)
	components := make([]string, 0, len(matches))
	for _, m := range matches {
		components = append(components, m[1])
	}
	return components, nil
}

// LoadQueryNames reads a persisted SessionReport and returns its query
// names ordered chronologically by result timestamp. Results missing a
// name or timestamp are dropped.
func LoadQueryNames(reportPath string) ([]string, error) {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var rep struct {
		QueryResults []struct {
			QueryName string `json:"query_name"`
			Timestamp string `json:"timestamp"`
		} `json:"query_results"`
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", reportPath, err)
	}

	type entry struct {
		timestamp string
		name      string
	}
	entries := make([]entry, 0, len(rep.QueryResults))
	for _, res := range rep.QueryResults {
		if res.QueryName == "" || res.Timestamp == "" {
			continue
		}
		entries = append(entries, entry{timestamp: res.Timestamp, name: res.QueryName})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].timestamp < entries[j].timestamp })

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names, nil
}

// WriteMapping writes the index/query/component TSV, appending unmatched
// remainders of either sequence as comments when the lengths diverge.
func WriteMapping(outPath string, names, components []string) error {
	paired := min(len(names), len(components))

	var b strings.Builder
	for i := 0; i < paired; i++ {
		fmt.Fprintf(&b, "%d\t%s\t%s\n", i+1, names[i], components[i])
	}
	if len(names) != len(components) {
		if rest := names[paired:]; len(rest) > 0 {
			b.WriteString("\n# Unmatched queries (no component)\n")
			for _, name := range rest {
				fmt.Fprintf(&b, "# %s\n", name)
			}
		}
		if rest := components[paired:]; len(rest) > 0 {
			b.WriteString("\n# Unmatched components (no query)\n")
			for _, comp := range rest {
				fmt.Fprintf(&b, "# %s\n", comp)
			}
		}
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// Bits encodes a scenario as its CE, CM, JN component flags.
type Bits [3]int

var bitsByCombo = map[string]Bits{
	"none":      {0, 0, 0},
	"baseline":  {0, 0, 0},
	"ce":        {1, 0, 0},
	"cm":        {0, 1, 0},
	"jn":        {0, 0, 1},
	"ce_cm":     {1, 1, 0},
	"ce_jn":     {1, 0, 1},
	"cm_jn":     {0, 1, 1},
	"all_three": {1, 1, 1},
	"all":       {1, 1, 1},
	"ce+cm":     {1, 1, 0},
	"ce+jn":     {1, 0, 1},
	"cm+jn":     {0, 1, 1},
	"ce+cm+jn":  {1, 1, 1},
}

var bestNorm = map[string]string{
	"baseline":  "baseline",
	"ce":        "ce",
	"cm":        "cm",
	"jn":        "jn",
	"ce_cm":     "ce_cm",
	"ce_jn":     "ce_jn",
	"cm_jn":     "cm_jn",
	"all_three": "all_three",
	"all":       "all_three",
	"ce+cm":     "ce_cm",
	"ce+jn":     "ce_jn",
	"cm+jn":     "cm_jn",
	"ce+cm+jn":  "all_three",
}

var compNorm = map[string]string{
	"NONE":  "none",
	"N":     "none",
	"CM":    "cm",
	"CE":    "ce",
	"JN":    "jn",
	"CE+CM": "ce_cm",
	"CE+JN": "ce_jn",
	"CM+JN": "cm_jn",
	"ALL":   "all_three",
}

// NormalizeQueryName drops the _round1 suffix single-round runs append so
// names align across tools.
func NormalizeQueryName(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), "_round1")
}

// LoadBestCSV reads the reference best-choice table (columns "query" and
// "best_combo") into a normalized query→combo map.
func LoadBestCSV(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open best csv: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read best csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("best csv %s is empty", path)
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
		return nil, fmt.Errorf("best csv %s has no query column", path)
	}

	best := make(map[string]string)
	for _, row := range records[1:] {
		if queryIdx >= len(row) {
			continue
		}
		query := NormalizeQueryName(row[queryIdx])
		if query == "" {
			continue
		}
		combo := ""
		if comboIdx >= 0 && comboIdx < len(row) {
			combo = strings.ToLower(strings.TrimSpace(row[comboIdx]))
		}
		if norm, ok := bestNorm[combo]; ok {
			combo = norm
		}
		best[query] = combo
	}
	return best, nil
}

// LoadMapping reads a query-component TSV produced by WriteMapping into a
// normalized query→combo map. Blank lines and comments are skipped.
func LoadMapping(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	mapping := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		query, comp, ok := parseMappingLine(line)
		if !ok {
			continue
		}
		if norm, found := compNorm[comp]; found {
			mapping[query] = norm
		} else {
			mapping[query] = strings.ToLower(comp)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return mapping, nil
}

func parseMappingLine(line string) (query, comp string, ok bool) {
	parts := strings.Split(strings.TrimSpace(line), "\t")
	if len(parts) < 3 {
		return "", "", false
	}
	query = NormalizeQueryName(parts[1])
	if query == "" {
		return "", "", false
	}
	comp = strings.TrimSpace(parenRe.ReplaceAllString(parts[2], ""))
	comp = strings.ReplaceAll(comp, "Auto: ", "")
	comp = strings.TrimSpace(strings.ReplaceAll(comp, "Auto", ""))
	comp = strings.ToUpper(strings.ReplaceAll(comp, " ", ""))
	return query, comp, true
}

// Evaluation summarizes how closely predicted component choices track the
// reference, measured as Hamming distance over the three component flags.
type Evaluation struct {
	Count      int
	Exact      int
	ExactPct   float64
	AvgHamming float64
	MaxHamming int
	DistCounts [4]int
}

// Evaluate scores predictions against the reference over their overlapping
// queries; labels outside the known encoding are skipped.
func Evaluate(best, pred map[string]string) Evaluation {
	var eval Evaluation
	var totalDist int
	for query, bestCombo := range best {
		predCombo, ok := pred[query]
		if !ok {
			continue
		}
		bestBits, ok := bitsByCombo[bestCombo]
		if !ok {
			continue
		}
		predBits, ok := bitsByCombo[predCombo]
		if !ok {
			continue
		}

		dist := hamming(bestBits, predBits)
		eval.Count++
		totalDist += dist
		eval.DistCounts[dist]++
		if dist == 0 {
			eval.Exact++
		}
		if dist > eval.MaxHamming {
			eval.MaxHamming = dist
		}
	}
	if eval.Count > 0 {
		eval.ExactPct = float64(eval.Exact) / float64(eval.Count)
		eval.AvgHamming = float64(totalDist) / float64(eval.Count)
	}
	return eval
}

func hamming(a, b Bits) int {
	dist := 0
	for i := range a {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist
}
