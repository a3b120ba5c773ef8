package insight

import (
	"encoding/json"
	"strings"

	"financial_analyzer/pkg/core/utils"
)

// MaxItemsPerField caps every merged list.
const MaxItemsPerField = 8

// MergeBundles concatenates each list field across bundles in input order,
// de-duplicates by case- and whitespace-insensitive key (first seen wins) and
// caps each field at MaxItemsPerField. Confidence is the mean of the inputs,
// 0 when there are none. Callers must pass bundles in a fixed order (section
// discovery order) for reproducible output.
func MergeBundles(bundles []Bundle) Bundle {
	merged := EmptyBundle()
	if len(bundles) == 0 {
		return merged
	}

	normalized := make([]Bundle, len(bundles))
	var sum float64
	for i, b := range bundles {
		normalized[i] = b.normalized()
		sum += normalized[i].Confidence
	}

	for _, key := range ListKeys {
		var all []string
		for _, b := range normalized {
			all = append(all, b.List(key)...)
		}
		merged.setList(key, dedupeKeepOrder(all, MaxItemsPerField))
	}
	merged.Confidence = sum / float64(len(normalized))
	return merged
}

// MergePayloads normalizes raw decoded payloads and merges them.
func MergePayloads(payloads []map[string]any) Bundle {
	bundles := make([]Bundle, len(payloads))
	for i, p := range payloads {
		bundles[i] = NormalizePayload(p)
	}
	return MergeBundles(bundles)
}

func dedupeKeepOrder(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, min(len(items), limit))
	for _, item := range items {
		cleaned := strings.Join(strings.Fields(item), " ")
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cleaned)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// ExtractJSONBlock pulls a JSON object out of free-form model output. It tries
// strict JSON, then the outermost {...} after stripping code fences, then a
// lenient repair. Anything unparseable yields an empty map.
func ExtractJSONBlock(text string) map[string]any {
	text = strings.TrimSpace(text)
	candidates := []string{text}
	if unfenced := utils.StripCodeFence(text); unfenced != text {
		candidates = append(candidates, unfenced)
	}
	if obj := utils.OuterObject(text); obj != "" {
		candidates = append(candidates, obj)
	}

	for _, c := range candidates {
		var out map[string]any
		if err := json.Unmarshal([]byte(c), &out); err == nil && out != nil {
			return out
		}
	}
	for _, c := range candidates[1:] {
		var out map[string]any
		if _, err := utils.SmartParse(c, &out); err == nil && out != nil {
			return out
		}
	}
	return map[string]any{}
}
