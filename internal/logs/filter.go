package logs

import (
	"encoding/json"
	"strings"
)

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// Filter selects log lines. Zero values match everything.
type Filter struct {
	// MinLevel drops lines below this level. Lines without a recognizable
	// level are kept.
	MinLevel string
	// Contains lists values that must all appear in the line, such as a run
	// id or a shop name.
	Contains []string
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if floor, ok := levelRank[normalizeLevel(f.MinLevel)]; ok {
		if rank, ok := levelRank[lineLevel(line)]; ok && rank < floor {
			return false
		}
	}
	for _, needle := range f.Contains {
		if needle = strings.TrimSpace(needle); needle != "" && !strings.Contains(line, needle) {
			return false
		}
	}
	return true
}

// lineLevel extracts the level from a console line
// ("<ts> LEVEL component: ...") or a JSON line ({"level":"info",...}).
func lineLevel(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var entry struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal([]byte(trimmed), &entry); err != nil {
			return ""
		}
		return normalizeLevel(entry.Level)
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return ""
	}
	return normalizeLevel(fields[1])
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	return level
}
