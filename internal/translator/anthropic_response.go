package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// OpenAIToAnthropicResponse converts a non-streaming OpenAI Chat
// Completions response into an Anthropic Messages response.
func OpenAIToAnthropicResponse(ctx context.Context, model string, responseBody []byte) ([]byte, error) {
	result := gjson.ParseBytes(responseBody)

	if errObj := result.Get("error"); errObj.Exists() {
		return anthropicErrorBody(errObj), nil
	}

	choice := result.Get("choices.0")
	message := choice.Get("message")

	var content []interface{}

	split := SplitLeadingThinking(message.Get("reasoning_content").String())
	if split.Thinking != "" {
		content = append(content, map[string]interface{}{"type": "thinking", "thinking": split.Thinking})
	}

	if text := message.Get("content").String(); text != "" {
		content = append(content, map[string]interface{}{"type": "text", "text": text})
	}

	for _, tc := range message.Get("tool_calls").Array() {
		var input interface{}
		_ = json.Unmarshal([]byte(tc.Get("function.arguments").String()), &input)
		content = append(content, map[string]interface{}{
			"type":  "tool_use",
			"id":    tc.Get("id").String(),
			"name":  tc.Get("function.name").String(),
			"input": input,
		})
	}

	stopReason := StopReasonFromOpenAI(choice.Get("finish_reason").String()).ToAnthropic()

	usage := UsageFromOpenAI(result.Get("usage")).ToAnthropic()

	response := map[string]interface{}{
		"id":            fmt.Sprintf("msg_%d", time.Now().UnixNano()),
		"type":          "message",
		"role":          "assistant",
		"model":         model,
		"content":       content,
		"stop_reason":   stopReason,
		"stop_sequence": nil,
		"usage":         usage,
	}

	return json.Marshal(response)
}

func anthropicErrorBody(errObj gjson.Result) []byte {
	body := map[string]interface{}{
		"type": "error",
		"error": map[string]interface{}{
			"type":    "api_error",
			"message": errObj.Get("message").String(),
		},
	}
	b, _ := json.Marshal(body)
	return b
}
