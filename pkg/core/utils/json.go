package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON attempts to fix common JSON errors from LLM outputs: unquoted
// keys, single quotes, trailing commas, unclosed brackets, code fences.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (comments, unquoted keys and strings,
// optional commas) and returns standard JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(jsonBytes), nil
}

// SmartParse decodes model output into schema, from strictest to most
// lenient: standard JSON, then Hjson (comments, trailing commas, single
// quotes), then json-repair for truncated or badly broken objects. It returns
// the JSON text that was finally decoded.
//
// json-repair re-encodes numbers at float32 precision, so number literals in
// its output are replaced with the ones from input whenever both contain the
// same number of them.
func SmartParse(input string, schema interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	if hjsonResult, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(hjsonResult), schema); err == nil {
			return hjsonResult, nil
		}
	}

	if repaired, err := RepairJSON(input); err == nil {
		repaired = restoreNumbers(input, repaired)
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}

// numberSpan is a number literal found outside string literals.
type numberSpan struct {
	start, end int
}

// restoreNumbers copies number literals from original into repaired, in
// order. It gives up (returns repaired unchanged) when the counts differ.
func restoreNumbers(original, repaired string) string {
	src := numberLiterals(original)
	dst := numberLiterals(repaired)
	if len(src) == 0 || len(src) != len(dst) {
		return repaired
	}

	var b strings.Builder
	b.Grow(len(repaired))
	last := 0
	for i, d := range dst {
		lit := original[src[i].start:src[i].end]
		if !json.Valid([]byte(lit)) {
			continue
		}
		b.WriteString(repaired[last:d.start])
		b.WriteString(lit)
		last = d.end
	}
	b.WriteString(repaired[last:])
	return b.String()
}

// numberLiterals scans s for JSON-like number tokens, skipping anything inside
// double- or single-quoted strings and digits that are part of a bare word.
func numberLiterals(s string) []numberSpan {
	var out []numberSpan
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if !isNumberStart(c) || (i > 0 && isWordByte(s[i-1])) {
			continue
		}
		j := i + 1
		for j < len(s) && isNumberByte(s[j]) {
			j++
		}
		if c != '-' || j > i+1 {
			out = append(out, numberSpan{start: i, end: j})
		}
		i = j - 1
	}
	return out
}

func isNumberStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9')
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// StripCodeFence removes a surrounding ```json ... ``` (or bare ```) block.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// OuterObject returns the slice from the first '{' to the last '}', or ""
// when there is no such pair.
func OuterObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
