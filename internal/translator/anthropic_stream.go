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

// OpenAIToAnthropicStream converts an OpenAI Chat Completions SSE stream
// into an Anthropic Messages SSE stream: message_start, then an ordered
// sequence of content_block_start/content_block_delta/content_block_stop
// per block with a monotonically increasing index, then message_delta and
// message_stop.
func OpenAIToAnthropicStream(ctx context.Context, model string, reader io.Reader) (io.Reader, error) {
	pr, pw := io.Pipe()

	go func() {
		defer pw.Close()

		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

		emitEvent := func(event string, payload map[string]interface{}) {
			body, _ := json.Marshal(payload)
			fmt.Fprintf(pw, "event: %s\ndata: %s\n\n", event, body)
		}

		msgID := fmt.Sprintf("msg_%d", time.Now().UnixNano())
		emitEvent("message_start", map[string]interface{}{
			"type": "message_start",
			"message": map[string]interface{}{
				"id":      msgID,
				"type":    "message",
				"role":    "assistant",
				"model":   model,
				"content": []interface{}{},
				"usage":   map[string]interface{}{"input_tokens": 0, "output_tokens": 0},
			},
		})

		blockIndex := -1
		openBlock := "" // "text" | "thinking" | "tool_use" | ""
		thinkAcc := &ThinkingAccumulator{}
		var lastUsage Usage
		stopReason := "end_turn"

		closeBlock := func() {
			if openBlock != "" {
				emitEvent("content_block_stop", map[string]interface{}{
					"type":  "content_block_stop",
					"index": blockIndex,
				})
				openBlock = ""
			}
		}

		openTextBlock := func() {
			if openBlock == "text" {
				return
			}
			closeBlock()
			blockIndex++
			openBlock = "text"
			emitEvent("content_block_start", map[string]interface{}{
				"type":          "content_block_start",
				"index":         blockIndex,
				"content_block": map[string]interface{}{"type": "text", "text": ""},
			})
		}

		openThinkingBlock := func() {
			if openBlock == "thinking" {
				return
			}
			closeBlock()
			blockIndex++
			openBlock = "thinking"
			emitEvent("content_block_start", map[string]interface{}{
				"type":          "content_block_start",
				"index":         blockIndex,
				"content_block": map[string]interface{}{"type": "thinking", "thinking": ""},
			})
		}

		toolBlockIndexByCallIdx := map[int64]int{}
		openToolBlock := func(callIdx int64, id, name string) int {
			closeBlock()
			blockIndex++
			openBlock = "tool_use"
			toolBlockIndexByCallIdx[callIdx] = blockIndex
			emitEvent("content_block_start", map[string]interface{}{
				"type":  "content_block_start",
				"index": blockIndex,
				"content_block": map[string]interface{}{
					"type": "tool_use", "id": id, "name": name, "input": map[string]interface{}{},
				},
			})
			return blockIndex
		}

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
			if errObj := chunk.Get("error"); errObj.Exists() {
				emitEvent("error", map[string]interface{}{
					"type":  "error",
					"error": map[string]interface{}{"type": "api_error", "message": errObj.Get("message").String()},
				})
				return
			}

			if usage := chunk.Get("usage"); usage.Exists() {
				lastUsage = UsageFromOpenAI(usage)
			}

			choice := chunk.Get("choices.0")
			delta := choice.Get("delta")

			if reasoning := delta.Get("reasoning_content"); reasoning.Exists() {
				openThinkingBlock()
				emitEvent("content_block_delta", map[string]interface{}{
					"type":  "content_block_delta",
					"index": blockIndex,
					"delta": map[string]interface{}{"type": "thinking_delta", "thinking": reasoning.String()},
				})
			}

			if text := delta.Get("content"); text.Exists() && text.String() != "" {
				thinkBlob, content := thinkAcc.Feed(text.String())
				if thinkBlob != "" {
					openThinkingBlock()
					emitEvent("content_block_delta", map[string]interface{}{
						"type":  "content_block_delta",
						"index": blockIndex,
						"delta": map[string]interface{}{"type": "thinking_delta", "thinking": thinkBlob},
					})
				}
				if content != "" {
					openTextBlock()
					emitEvent("content_block_delta", map[string]interface{}{
						"type":  "content_block_delta",
						"index": blockIndex,
						"delta": map[string]interface{}{"type": "text_delta", "text": content},
					})
				}
			}

			for _, tc := range delta.Get("tool_calls").Array() {
				callIdx := tc.Get("index").Int()
				idx, seen := toolBlockIndexByCallIdx[callIdx]
				if !seen {
					idx = openToolBlock(callIdx, tc.Get("id").String(), tc.Get("function.name").String())
				}
				if args := tc.Get("function.arguments"); args.Exists() && args.String() != "" {
					emitEvent("content_block_delta", map[string]interface{}{
						"type":  "content_block_delta",
						"index": idx,
						"delta": map[string]interface{}{"type": "input_json_delta", "partial_json": args.String()},
					})
				}
			}

			if fr := choice.Get("finish_reason"); fr.Exists() && fr.String() != "" {
				stopReason = StopReasonFromOpenAI(fr.String()).ToAnthropic()
			}
		}

		if thinkBlob, content := thinkAcc.Flush(); thinkBlob != "" || content != "" {
			if thinkBlob != "" {
				openThinkingBlock()
				emitEvent("content_block_delta", map[string]interface{}{
					"type":  "content_block_delta",
					"index": blockIndex,
					"delta": map[string]interface{}{"type": "thinking_delta", "thinking": thinkBlob},
				})
			}
			if content != "" {
				openTextBlock()
				emitEvent("content_block_delta", map[string]interface{}{
					"type":  "content_block_delta",
					"index": blockIndex,
					"delta": map[string]interface{}{"type": "text_delta", "text": content},
				})
			}
		}

		closeBlock()

		emitEvent("message_delta", map[string]interface{}{
			"type":  "message_delta",
			"delta": map[string]interface{}{"stop_reason": stopReason, "stop_sequence": nil},
			"usage": lastUsage.ToAnthropic(),
		})
		emitEvent("message_stop", map[string]interface{}{"type": "message_stop"})
	}()

	return pr, nil
}
