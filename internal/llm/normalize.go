package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Hard parse failures. Both are non-transient: a malformed reply is handled
// per chunk/page, never retried as if it were a network fault.
var (
	ErrNoJSON     = errors.New("no JSON found in model output")
	ErrMissingKey = errors.New("required array key missing in model output")
)

var reFencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?})\\s*```")

// ExtractJSONObject reduces raw model output to a single JSON object string.
// A fenced code block wins; otherwise the substring between the first '{'
// and the last '}' is taken. Absence of either is a hard failure.
func ExtractJSONObject(raw string) (string, error) {
	if m := reFencedBlock.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}
	return raw[start : end+1], nil
}

// NormalizeTextDecisions validates and clamps a text-mode reply. The "keep"
// key is mandatory; its absence is a parse failure, not an empty result.
// Elements without a non-empty id are silently dropped.
func NormalizeTextDecisions(raw string) (TextDecisions, error) {
	doc, err := ExtractJSONObject(raw)
	if err != nil {
		return TextDecisions{}, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return TextDecisions{}, fmt.Errorf("decode decisions: %w", err)
	}
	items, err := requiredArray(m, "keep")
	if err != nil {
		return TextDecisions{}, err
	}

	out := TextDecisions{Warnings: normalizeWarnings(m["warnings"])}
	for _, item := range items {
		id := strings.TrimSpace(stringField(item, "id"))
		if id == "" {
			continue
		}
		out.Keep = append(out.Keep, KeepDecision{
			ID:                  id,
			SectionHeading:      strings.TrimSpace(stringField(item, "section_heading")),
			Note:                strings.TrimSpace(stringField(item, "note")),
			Confidence:          clampConfidence(item["confidence"]),
			PossibleBoilerplate: boolField(item, "possible_boilerplate"),
		})
	}
	return out, nil
}

// NormalizeVisionDecisions validates and clamps a vision-mode reply. The
// "paragraphs" key is mandatory; elements with empty trimmed text are
// silently dropped.
func NormalizeVisionDecisions(raw string) (VisionDecisions, error) {
	doc, err := ExtractJSONObject(raw)
	if err != nil {
		return VisionDecisions{}, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return VisionDecisions{}, fmt.Errorf("decode decisions: %w", err)
	}
	items, err := requiredArray(m, "paragraphs")
	if err != nil {
		return VisionDecisions{}, err
	}

	out := VisionDecisions{Warnings: normalizeWarnings(m["warnings"])}
	for _, item := range items {
		text := strings.TrimSpace(stringField(item, "text"))
		if text == "" {
			continue
		}
		out.Paragraphs = append(out.Paragraphs, VisionParagraph{
			Text:                text,
			SectionHeading:      strings.TrimSpace(stringField(item, "section_heading")),
			Note:                strings.TrimSpace(stringField(item, "note")),
			Confidence:          clampConfidence(item["confidence"]),
			PossibleBoilerplate: boolField(item, "possible_boilerplate"),
		})
	}
	return out, nil
}

func requiredArray(m map[string]json.RawMessage, key string) ([]map[string]any, error) {
	raw, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not an object array", ErrMissingKey, key)
	}
	return items, nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// boolField coerces loose truthy values the way models actually emit them.
func boolField(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "yes" || s == "1"
	case float64:
		return v != 0
	}
	return false
}

// clampConfidence clamps numeric confidence into [0,1] and drops anything
// non-numeric.
func clampConfidence(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return &f
}

func normalizeWarnings(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
