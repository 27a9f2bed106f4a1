package matcher

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractJSON returns the JSON payload inside an LLM reply: the body of the
// first fenced code block, else the span from the first '{' or '[' to the
// matching last '}' or ']'. ok is false when no candidate span exists.
func ExtractJSON(text string) (string, bool) {
	if start := strings.Index(text, "```"); start >= 0 {
		rest := text[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			// language tag such as "json"
			if tag := strings.TrimSpace(rest[:nl]); !strings.ContainsAny(tag, "{[") {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			body := strings.TrimSpace(rest[:end])
			if body != "" {
				return body, true
			}
		}
	}

	first := strings.IndexAny(text, "{[")
	if first < 0 {
		return "", false
	}
	closer := "}"
	if text[first] == '[' {
		closer = "]"
	}
	last := strings.LastIndex(text, closer)
	if last <= first {
		return "", false
	}
	return text[first : last+1], true
}

// ParseVerdicts reads per-pair verdicts from an oracle reply. Accepted
// shapes: an array of booleans; an array of objects carrying an index and a
// verdict; an object keyed by index; or any of these under a "results",
// "verdicts" or "pairs" key. Indices outside [0,n) are ignored. Pairs
// without a readable verdict are absent from the map and count as false.
func ParseVerdicts(text string, n int) map[int]bool {
	out := map[int]bool{}
	payload, ok := ExtractJSON(text)
	if !ok {
		return out
	}
	var v interface{}
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return out
	}
	collect(v, n, out)
	return out
}

func collect(v interface{}, n int, out map[int]bool) {
	switch t := v.(type) {
	case []interface{}:
		for i, item := range t {
			if obj, ok := item.(map[string]interface{}); ok {
				idx, hasIdx := indexOf(obj)
				if !hasIdx {
					idx = i
				}
				if b, ok := verdictOf(obj); ok {
					put(out, idx, b, n)
				}
				continue
			}
			if b, ok := asBool(item); ok {
				put(out, i, b, n)
			}
		}
	case map[string]interface{}:
		for _, key := range []string{"results", "verdicts", "pairs"} {
			if inner, ok := t[key]; ok {
				collect(inner, n, out)
				return
			}
		}
		for k, val := range t {
			idx, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil {
				continue
			}
			if obj, ok := val.(map[string]interface{}); ok {
				if b, ok := verdictOf(obj); ok {
					put(out, idx, b, n)
				}
				continue
			}
			if b, ok := asBool(val); ok {
				put(out, idx, b, n)
			}
		}
	}
}

func put(out map[int]bool, idx int, b bool, n int) {
	if idx >= 0 && idx < n {
		out[idx] = b
	}
}

func indexOf(obj map[string]interface{}) (int, bool) {
	for _, key := range []string{"index", "pair", "id"} {
		switch x := obj[key].(type) {
		case float64:
			return int(x), true
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func verdictOf(obj map[string]interface{}) (bool, bool) {
	for _, key := range []string{"similar", "match", "same", "verdict", "result"} {
		if val, ok := obj[key]; ok {
			return asBool(val)
		}
	}
	return false, false
}

func asBool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "similar", "same":
			return true, true
		case "false", "no", "different":
			return false, true
		}
	}
	return false, false
}
