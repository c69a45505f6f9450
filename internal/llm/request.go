package llm

import "encoding/json"

// BuildChatBody constructs the chat/completions request body for a Request.
// The live client posts it directly; the batch orchestrator embeds the same
// body in a JSONL request line, so both paths stay byte-compatible.
func BuildChatBody(model string, temperature float32, req Request) map[string]any {
	var userContent any = req.User
	if req.ImageDataURL != "" {
		userContent = []map[string]any{
			{"type": "text", "text": req.User},
			{"type": "image_url", "image_url": map[string]any{"url": req.ImageDataURL}},
		}
	}

	messages := []map[string]any{
		{"role": "system", "content": req.System},
		{"role": "user", "content": userContent},
	}
	if req.Schema != nil {
		messages = append(messages, map[string]any{
			"role":    "system",
			"content": "JSON Schema:\n" + mustJSON(req.Schema),
		})
	}

	body := map[string]any{
		"model":       model,
		"temperature": temperature,
		"messages":    messages,
	}
	if req.ExpectJSON {
		body["response_format"] = map[string]any{"type": "json_object"}
	}
	return body
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
