// Package fingerprint computes the deterministic 32-bit hash of normalized
// query text used as the speedup-cache key, and maps best-combination
// labels to canonical scenario names.
package fingerprint

import (
	"bytes"
	"strings"
	"unicode"
)

// Hash is a port of PostgreSQL's hash_any (Jenkins lookup3 as shipped in
// the server), byte-at-a-time variant. The server-side cache consumer
// computes the same function over the same normalized text, so the two
// must stay bit-identical.
func Hash(data []byte) uint32 {
	a := 0x9e3779b9 + uint32(len(data)) + 3923095
	b, c := a, a

	i := 0
	for len(data)-i >= 12 {
		a += uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		b += uint32(data[i+4]) | uint32(data[i+5])<<8 | uint32(data[i+6])<<16 | uint32(data[i+7])<<24
		c += uint32(data[i+8]) | uint32(data[i+9])<<8 | uint32(data[i+10])<<16 | uint32(data[i+11])<<24
		a, b, c = mix(a, b, c)
		i += 12
	}

	tail := data[i:]
	if len(tail) >= 1 {
		a += uint32(tail[0])
	}
	if len(tail) >= 2 {
		a += uint32(tail[1]) << 8
	}
	if len(tail) >= 3 {
		a += uint32(tail[2]) << 16
	}
	if len(tail) >= 4 {
		a += uint32(tail[3]) << 24
	}
	if len(tail) >= 5 {
		b += uint32(tail[4])
	}
	if len(tail) >= 6 {
		b += uint32(tail[5]) << 8
	}
	if len(tail) >= 7 {
		b += uint32(tail[6]) << 16
	}
	if len(tail) >= 8 {
		b += uint32(tail[7]) << 24
	}
	// The low byte of c is reserved for the length, so tail bytes enter c
	// from shift 8.
	if len(tail) >= 9 {
		c += uint32(tail[8]) << 8
	}
	if len(tail) >= 10 {
		c += uint32(tail[9]) << 16
	}
	if len(tail) >= 11 {
		c += uint32(tail[10]) << 24
	}

	_, _, c = final(a, b, c)
	return c
}

// Signed renders the fingerprint the way the cache file stores it.
func Signed(h uint32) int32 { return int32(h) }

func rot(x uint32, k uint) uint32 { return x<<k | x>>(32-k) }

func mix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= c
	a ^= rot(c, 4)
	c += b
	b -= a
	b ^= rot(a, 6)
	a += c
	c -= b
	c ^= rot(b, 8)
	b += a
	a -= c
	a ^= rot(c, 16)
	c += b
	b -= a
	b ^= rot(a, 19)
	a += c
	c -= b
	c ^= rot(b, 4)
	b += a
	return a, b, c
}

func final(a, b, c uint32) (uint32, uint32, uint32) {
	c ^= b
	c -= rot(b, 14)
	a ^= c
	a -= rot(c, 11)
	b ^= a
	b -= rot(a, 25)
	c ^= b
	c -= rot(b, 16)
	a ^= c
	a -= rot(c, 4)
	b ^= a
	b -= rot(a, 14)
	c ^= b
	c -= rot(b, 24)
	return a, b, c
}

// Normalize strips any leading EXPLAIN clause, lowercases, and removes all
// whitespace so textual formatting cannot perturb the fingerprint.
func Normalize(sql string) []byte {
	var buf bytes.Buffer
	for _, r := range StripExplainPrefix(sql) {
		if unicode.IsSpace(r) {
			continue
		}
		buf.WriteRune(unicode.ToLower(r))
	}
	return buf.Bytes()
}

// StripExplainPrefix removes a leading EXPLAIN keyword and its option
// clause, parenthesized or bare, returning the text from the statement
// keyword onward. Text without an EXPLAIN prefix is returned unchanged.
func StripExplainPrefix(sql string) string {
	n := len(sql)
	p := skipSpaces(sql, 0)
	if p+7 > n || !strings.EqualFold(sql[p:p+7], "explain") {
		return sql
	}
	p = skipSpaces(sql, p+7)

	if p < n && sql[p] == '(' {
		depth := 1
		p++
		for p < n && depth > 0 {
			switch sql[p] {
			case '(':
				depth++
			case ')':
				depth--
			}
			p++
		}
		p = skipSpaces(sql, p)
	} else {
		options := []string{"analyze", "verbose", "costs", "buffers", "timing", "summary", "settings", "wal"}
		for p < n {
			matched := false
			for _, opt := range options {
				end := p + len(opt)
				if end <= n && strings.EqualFold(sql[p:end], opt) && (end == n || isSpace(sql[end])) {
					matched = true
					p = end
					for p < n && !isSpace(sql[p]) {
						p++
					}
					p = skipSpaces(sql, p)
					break
				}
			}
			if !matched {
				break
			}
		}
	}

	keywords := []string{"select", "with", "insert", "update", "delete"}
	for ; p < n; p++ {
		for _, kw := range keywords {
			if p+len(kw) <= n && strings.EqualFold(sql[p:p+len(kw)], kw) {
				return sql[p:]
			}
		}
	}
	return sql
}

func skipSpaces(s string, p int) int {
	for p < len(s) && isSpace(s[p]) {
		p++
	}
	return p
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

var scenarioByCombo = map[string]string{
	"baseline":  "NONE",
	"ce_cm":     "CE+CM",
	"ce":        "CE",
	"cm":        "CM",
	"jn":        "JN",
	"ce_jn":     "CE+JN",
	"cm_jn":     "CM+JN",
	"all_three": "ALL",
	"all":       "ALL",
	"ce+cm":     "CE+CM",
	"ce+jn":     "CE+JN",
	"cm+jn":     "CM+JN",
	"ce+cm+jn":  "ALL",
}

// CanonicalScenario maps a best-combination label to its canonical scenario
// name. The mapping is total and idempotent: already-canonical labels map
// to themselves, unknown labels pass through uppercased, and the empty
// label means no component was enabled.
func CanonicalScenario(combo string) string {
	if combo == "" {
		return "NONE"
	}
	key := strings.ToLower(strings.TrimSpace(combo))
	if scenario, ok := scenarioByCombo[key]; ok {
		return scenario
	}
	return strings.ToUpper(strings.TrimSpace(combo))
}
