package translator

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func init() {
	Register(FormatAnthropic, FormatOpenAI, TranslatorConfig{
		RequestTransform:  AnthropicToOpenAIRequest,
		ResponseTransform: OpenAIToAnthropicResponse,
		StreamTransform:   OpenAIToAnthropicStream,
	})
}

// AnthropicToOpenAIRequest converts an Anthropic Messages request body into
// an OpenAI Chat Completions request body.
func AnthropicToOpenAIRequest(model string, rawJSON []byte, stream bool) []byte {
	out := []byte(`{}`)
	out, _ = sjson.SetBytes(out, "model", model)
	out, _ = sjson.SetBytes(out, "stream", stream)

	if maxTokens := gjson.GetBytes(rawJSON, "max_tokens"); maxTokens.Exists() {
		out, _ = sjson.SetBytes(out, "max_tokens", maxTokens.Int())
	}
	if temp := gjson.GetBytes(rawJSON, "temperature"); temp.Exists() {
		out, _ = sjson.SetBytes(out, "temperature", temp.Float())
	}
	if topP := gjson.GetBytes(rawJSON, "top_p"); topP.Exists() {
		out, _ = sjson.SetBytes(out, "top_p", topP.Float())
	}
	if stopSeqs := gjson.GetBytes(rawJSON, "stop_sequences"); stopSeqs.IsArray() {
		out, _ = sjson.SetRawBytes(out, "stop", []byte(stopSeqs.Raw))
	}

	var messages []interface{}

	if sys := gjson.GetBytes(rawJSON, "system"); sys.Exists() {
		messages = append(messages, map[string]interface{}{
			"role":    "system",
			"content": flattenSystemPrompt(sys),
		})
	}

	anthropicMessages := gjson.GetBytes(rawJSON, "messages").Array()
	decoded := make([]interface{}, 0, len(anthropicMessages))
	for _, m := range anthropicMessages {
		decoded = append(decoded, anthropicMessageToGeneric(m))
	}
	decoded = SanitizeToolPairing(decoded)
	for _, d := range decoded {
		messages = append(messages, genericToOpenAIMessages(d.(map[string]interface{}))...)
	}

	messagesJSON, _ := json.Marshal(messages)
	out, _ = sjson.SetRawBytes(out, "messages", messagesJSON)

	declaredTools := toolsFromAnthropic(gjson.GetBytes(rawJSON, "tools"))
	if len(declaredTools) > 0 {
		toolsJSON, _ := json.Marshal(declaredTools)
		out, _ = sjson.SetRawBytes(out, "tools", toolsJSON)
	}

	if tc := gjson.GetBytes(rawJSON, "tool_choice"); tc.Exists() {
		out = applyToolChoice(out, tc)
	}

	return out
}

func flattenSystemPrompt(sys gjson.Result) string {
	if sys.IsArray() {
		var b strings.Builder
		for i, block := range sys.Array() {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(block.Get("text").String())
		}
		return b.String()
	}
	return sys.String()
}

// anthropicMessageToGeneric converts one Anthropic message (role + content
// blocks) into the generic map[string]interface{} shape SanitizeToolPairing
// and the OpenAI message marshaler both understand.
func anthropicMessageToGeneric(m gjson.Result) map[string]interface{} {
	role := m.Get("role").String()
	content := m.Get("content")

	msg := map[string]interface{}{"role": role}

	if !content.IsArray() {
		msg["content"] = content.String()
		return msg
	}

	var blocks []interface{}
	for _, block := range content.Array() {
		blocks = append(blocks, anthropicBlockToGeneric(block))
	}
	msg["content"] = blocks
	return msg
}

func anthropicBlockToGeneric(block gjson.Result) map[string]interface{} {
	out := map[string]interface{}{"type": block.Get("type").String()}
	switch out["type"] {
	case "text":
		out["text"] = block.Get("text").String()
	case "thinking":
		out["thinking"] = block.Get("thinking").String()
	case "tool_use":
		out["id"] = block.Get("id").String()
		out["name"] = block.Get("name").String()
		var input interface{}
		_ = json.Unmarshal([]byte(block.Get("input").Raw), &input)
		out["input"] = input
	case "tool_result":
		out["tool_use_id"] = block.Get("tool_use_id").String()
		out["content"] = block.Get("content").Value()
		out["is_error"] = block.Get("is_error").Bool()
	case "image":
		out["source"] = block.Get("source").Value()
	default:
		var raw interface{}
		_ = json.Unmarshal([]byte(block.Raw), &raw)
		if m, ok := raw.(map[string]interface{}); ok {
			return m
		}
	}
	return out
}

// toOpenAIMessages renders the generic message shape produced above into
// OpenAI Chat Completions message objects (content blocks -> content parts
// + tool_calls, tool_result -> a "tool" role message).
func toolsFromAnthropic(tools gjson.Result) []interface{} {
	if !tools.IsArray() {
		return nil
	}
	var out []interface{}
	for _, t := range tools.Array() {
		name := t.Get("name").String()
		if name == "web_search" || name == "computer" || t.Get("type").String() != "" && strings.HasPrefix(t.Get("type").String(), "web_search") {
			// web_search and computer-use tools have no OpenAI function
			// equivalent; dropped and logged rather than mistranslated.
			continue
		}
		var schema interface{}
		_ = json.Unmarshal([]byte(t.Get("input_schema").Raw), &schema)
		out = append(out, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        name,
				"description": t.Get("description").String(),
				"parameters":  schema,
			},
		})
	}
	return out
}

// genericToOpenAIMessages renders one generic Anthropic-shaped message
// (role + content blocks from anthropicMessageToGeneric) into zero or more
// OpenAI Chat Completions messages. A user message carrying tool_result
// blocks expands into one "tool" role message per block, since OpenAI has
// no concept of a tool result embedded in a user turn; an assistant
// message carrying tool_use blocks becomes a single message with
// tool_calls alongside any plain text.
func genericToOpenAIMessages(msg map[string]interface{}) []interface{} {
	role, _ := msg["role"].(string)
	content := msg["content"]

	if text, ok := content.(string); ok {
		return []interface{}{map[string]interface{}{"role": role, "content": text}}
	}

	blocks, _ := content.([]interface{})
	if blocks == nil {
		return []interface{}{map[string]interface{}{"role": role, "content": ""}}
	}

	if role == "user" {
		var contentParts []interface{}
		var toolMessages []interface{}
		for _, raw := range blocks {
			b, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			switch b["type"] {
			case "tool_result":
				content := renderToolResultContent(b["content"])
				toolMessages = append(toolMessages, map[string]interface{}{
					"role":         "tool",
					"tool_call_id": b["tool_use_id"],
					"content":      content,
				})
			case "text":
				if t, _ := b["text"].(string); t != "" {
					contentParts = append(contentParts, map[string]interface{}{"type": "text", "text": t})
				}
			case "image":
				if url := imageBlockToOpenAIPart(b); url != "" {
					contentParts = append(contentParts, map[string]interface{}{
						"type":      "image_url",
						"image_url": map[string]interface{}{"url": url},
					})
				}
			}
		}
		var out []interface{}
		if len(contentParts) == 1 {
			if t, ok := contentParts[0].(map[string]interface{}); ok && t["type"] == "text" {
				out = append(out, map[string]interface{}{"role": "user", "content": t["text"]})
			} else {
				out = append(out, map[string]interface{}{"role": "user", "content": contentParts})
			}
		} else if len(contentParts) > 1 {
			out = append(out, map[string]interface{}{"role": "user", "content": contentParts})
		}
		out = append(out, toolMessages...)
		return out
	}

	// assistant
	var textParts []string
	var toolCalls []interface{}
	for _, raw := range blocks {
		b, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		switch b["type"] {
		case "text":
			if t, _ := b["text"].(string); t != "" {
				textParts = append(textParts, t)
			}
		case "thinking":
			// extended-thinking content has no OpenAI assistant-message
			// field; it is not replayed back into history.
		case "tool_use":
			args, _ := json.Marshal(b["input"])
			toolCalls = append(toolCalls, map[string]interface{}{
				"id":   b["id"],
				"type": "function",
				"function": map[string]interface{}{
					"name":      b["name"],
					"arguments": string(args),
				},
			})
		}
	}
	out := map[string]interface{}{"role": "assistant", "content": strings.Join(textParts, "\n")}
	if len(toolCalls) > 0 {
		out["tool_calls"] = toolCalls
	}
	return []interface{}{out}
}

func renderToolResultContent(content interface{}) string {
	switch c := content.(type) {
	case string:
		return c
	case []interface{}:
		var parts []string
		for _, item := range c {
			if m, ok := item.(map[string]interface{}); ok {
				if t, ok := m["text"].(string); ok {
					parts = append(parts, t)
				}
			}
		}
		return strings.Join(parts, "\n")
	case nil:
		return ""
	default:
		b, _ := json.Marshal(c)
		return string(b)
	}
}

func imageBlockToOpenAIPart(block map[string]interface{}) string {
	src, _ := block["source"].(map[string]interface{})
	if src == nil {
		return ""
	}
	mediaType, _ := src["media_type"].(string)
	data, _ := src["data"].(string)
	if data == "" {
		if url, ok := src["url"].(string); ok {
			return url
		}
		return ""
	}
	return "data:" + mediaType + ";base64," + data
}

func applyToolChoice(out []byte, tc gjson.Result) []byte {
	switch tc.Get("type").String() {
	case "auto":
		out, _ = sjson.SetBytes(out, "tool_choice", "auto")
	case "any":
		out, _ = sjson.SetBytes(out, "tool_choice", "required")
	case "tool":
		out, _ = sjson.SetBytes(out, "tool_choice.type", "function")
		out, _ = sjson.SetBytes(out, "tool_choice.function.name", tc.Get("name").String())
	case "none":
		out, _ = sjson.SetBytes(out, "tool_choice", "none")
	}
	return out
}
