package logs

import (
	"encoding/json"
	"strings"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects run log records. Zero values match everything.
type Filter struct {
	// RunID matches records whose run_id starts with this prefix.
	RunID string
	// MinLevel drops records below debug, info, warn or error.
	MinLevel string
}

// Record is the subset of a JSON log line the filter inspects.
type Record struct {
	Level string `json:"level"`
	RunID string `json:"run_id"`
	Msg   string `json:"msg"`
}

// Empty reports whether the filter matches every line.
func (f Filter) Empty() bool {
	return strings.TrimSpace(f.RunID) == "" && strings.TrimSpace(f.MinLevel) == ""
}

// Match reports whether line passes the filter. Lines that are not JSON
// records only pass an empty filter.
func (f Filter) Match(line string) bool {
	if f.Empty() {
		return true
	}
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return false
	}
	if prefix := strings.TrimSpace(f.RunID); prefix != "" && !strings.HasPrefix(rec.RunID, prefix) {
		return false
	}
	if floor := strings.ToLower(strings.TrimSpace(f.MinLevel)); floor != "" {
		want, ok := levelRank[floor]
		got, known := levelRank[strings.ToLower(rec.Level)]
		if ok && known && got < want {
			return false
		}
	}
	return true
}

// Apply returns the lines that pass the filter.
func (f Filter) Apply(lines []string) []string {
	if f.Empty() {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f.Match(line) {
			out = append(out, line)
		}
	}
	return out
}
