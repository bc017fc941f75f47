package translator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tidwall/gjson"
)

func init() {
	Register(FormatOpenAIResponses, FormatGemini, TranslatorConfig{
		RequestTransform: OpenAIResponsesToGeminiRequest,
	})
	Register(FormatOpenAI, FormatOpenAIResponses, TranslatorConfig{
		ResponseTransform: OpenAIChatToResponsesResponse,
		StreamTransform:   OpenAIChatToResponsesStream,
	})
}

// OpenAIChatToResponsesResponse converts a non-streaming OpenAI Chat
// Completions response into an OpenAI Responses API response.
func OpenAIChatToResponsesResponse(ctx context.Context, model string, responseBody []byte) ([]byte, error) {
	result := gjson.ParseBytes(responseBody)
	if errObj := result.Get("error"); errObj.Exists() {
		return responseBody, nil
	}

	message := result.Get("choices.0.message")
	var output []interface{}

	if text := message.Get("content").String(); text != "" {
		output = append(output, map[string]interface{}{
			"type": "message",
			"role": "assistant",
			"content": []interface{}{
				map[string]interface{}{"type": "output_text", "text": text},
			},
		})
	}

	for _, tc := range message.Get("tool_calls").Array() {
		output = append(output, map[string]interface{}{
			"type":      "function_call",
			"call_id":   tc.Get("id").String(),
			"name":      tc.Get("function.name").String(),
			"arguments": tc.Get("function.arguments").String(),
		})
	}

	response := map[string]interface{}{
		"id":     fmt.Sprintf("resp_%d", time.Now().UnixNano()),
		"object": "response",
		"model":  model,
		"status": "completed",
		"output": output,
		"usage":  UsageFromOpenAI(result.Get("usage")).ToOpenAI(),
	}
	return json.Marshal(response)
}

// OpenAIChatToResponsesStream converts an OpenAI Chat Completions SSE
// stream into an OpenAI Responses API SSE stream: response.created ->
// response.in_progress -> per-output-item events -> response.completed,
// each event carrying a monotonically increasing sequence_number.
func OpenAIChatToResponsesStream(ctx context.Context, model string, reader io.Reader) (io.Reader, error) {
	pr, pw := io.Pipe()

	go func() {
		defer pw.Close()

		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

		seq := 0
		emit := func(eventType string, payload map[string]interface{}) {
			seq++
			payload["type"] = eventType
			payload["sequence_number"] = seq
			body, _ := json.Marshal(payload)
			fmt.Fprintf(pw, "event: %s\ndata: %s\n\n", eventType, body)
		}

		respID := fmt.Sprintf("resp_%d", time.Now().UnixNano())
		emit("response.created", map[string]interface{}{
			"response": map[string]interface{}{"id": respID, "object": "response", "model": model, "status": "in_progress"},
		})
		emit("response.in_progress", map[string]interface{}{
			"response": map[string]interface{}{"id": respID, "status": "in_progress"},
		})

		itemID := fmt.Sprintf("msg_%d", time.Now().UnixNano())
		started := false
		var lastUsage Usage

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 || !bytes.HasPrefix(line, []byte("data: ")) {
				continue
			}
			jsonData := bytes.TrimPrefix(line, []byte("data: "))
			if bytes.Equal(jsonData, []byte("[DONE]")) {
				break
			}

			chunk := gjson.ParseBytes(jsonData)
			if usage := chunk.Get("usage"); usage.Exists() {
				lastUsage = UsageFromOpenAI(usage)
			}

			delta := chunk.Get("choices.0.delta")
			if text := delta.Get("content"); text.Exists() && text.String() != "" {
				if !started {
					started = true
					emit("response.output_item.added", map[string]interface{}{
						"output_index": 0,
						"item":         map[string]interface{}{"id": itemID, "type": "message", "role": "assistant"},
					})
				}
				emit("response.output_text.delta", map[string]interface{}{
					"item_id":      itemID,
					"output_index": 0,
					"delta":        text.String(),
				})
			}
		}

		if started {
			emit("response.output_item.done", map[string]interface{}{
				"output_index": 0,
				"item":         map[string]interface{}{"id": itemID, "type": "message", "role": "assistant"},
			})
		}

		emit("response.completed", map[string]interface{}{
			"response": map[string]interface{}{"id": respID, "status": "completed", "usage": lastUsage.ToOpenAI()},
		})
	}()

	return pr, nil
}
