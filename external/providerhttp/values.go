package providerhttp

import (
	"math"
	"strconv"
	"strings"
)

// Lookup walks a dotted path through nested objects. Numeric segments index
// into arrays, so "standings.0.table" is valid.
func Lookup(src map[string]any, path string) any {
	var current any = src
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			current = node[segment]
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}

// String returns a trimmed string at path. Numbers are rendered without a
// fractional part when they are whole.
func String(src map[string]any, path string) string {
	switch typed := Lookup(src, path).(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return formatNumber(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return ""
	}
}

// Int reads an integer at path, accepting numeric strings. The second return
// is false when the value is absent or not numeric.
func Int(src map[string]any, path string) (int, bool) {
	switch typed := Lookup(src, path).(type) {
	case float64:
		return int(typed), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		v, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func IntOr(src map[string]any, path string, fallback int) int {
	if v, ok := Int(src, path); ok {
		return v
	}
	return fallback
}

// Objects returns the object elements of the array at path, skipping
// anything that is not an object.
func Objects(src map[string]any, path string) []map[string]any {
	items, ok := Lookup(src, path).([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func FirstNonEmpty(values ...string) string {
	for _, item := range values {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
