package translator

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicToOpenAIRequestBasic(t *testing.T) {
	input := `{
		"model": "claude-opus-4",
		"max_tokens": 1024,
		"system": "Be terse.",
		"messages": [
			{"role": "user", "content": "Hello"}
		],
		"tools": [
			{"name": "get_weather", "description": "weather lookup", "input_schema": {"type": "object"}}
		]
	}`
	out := AnthropicToOpenAIRequest("claude-opus-4", []byte(input), false)

	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &obj))
	assert.Equal(t, float64(1024), obj["max_tokens"])

	messages, ok := obj["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])

	tools, ok := obj["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, tools, 1)
}

func TestAnthropicToOpenAIRequestToolUseAndResult(t *testing.T) {
	input := `{
		"messages": [
			{"role": "user", "content": "What's 2+2?"},
			{"role": "assistant", "content": [
				{"type": "tool_use", "id": "toolu_1", "name": "calc", "input": {"expr": "2+2"}}
			]},
			{"role": "user", "content": [
				{"type": "tool_result", "tool_use_id": "toolu_1", "content": "4"}
			]}
		]
	}`
	out := AnthropicToOpenAIRequest("claude-opus-4", []byte(input), false)

	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &obj))
	messages := obj["messages"].([]interface{})
	require.Len(t, messages, 3)

	assistantMsg := messages[1].(map[string]interface{})
	toolCalls, ok := assistantMsg["tool_calls"].([]interface{})
	require.True(t, ok)
	require.Len(t, toolCalls, 1)

	toolMsg := messages[2].(map[string]interface{})
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "toolu_1", toolMsg["tool_call_id"])
}

func TestAnthropicToOpenAIRequestDropsOrphanToolUse(t *testing.T) {
	input := `{
		"messages": [
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": [
				{"type": "tool_use", "id": "", "name": "calc", "input": {}}
			]}
		]
	}`
	out := AnthropicToOpenAIRequest("claude-opus-4", []byte(input), false)

	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &obj))
	messages := obj["messages"].([]interface{})
	// the orphaned tool_use (no matching tool_result) should be dropped,
	// leaving an assistant message with no tool_calls and empty content.
	assistantMsg := messages[1].(map[string]interface{})
	_, hasToolCalls := assistantMsg["tool_calls"]
	assert.False(t, hasToolCalls)
}

func TestOpenAIToAnthropicResponseBasic(t *testing.T) {
	input := `{
		"choices": [
			{"message": {"role": "assistant", "content": "Hi there"}, "finish_reason": "stop"}
		],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5}
	}`
	out, err := OpenAIToAnthropicResponse(context.Background(), "claude-opus-4", []byte(input))
	require.NoError(t, err)

	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &obj))
	assert.Equal(t, "message", obj["type"])
	assert.Equal(t, "end_turn", obj["stop_reason"])

	content := obj["content"].([]interface{})
	require.Len(t, content, 1)
	block := content[0].(map[string]interface{})
	assert.Equal(t, "text", block["type"])
	assert.Equal(t, "Hi there", block["text"])
}

func TestOpenAIToAnthropicResponseToolCalls(t *testing.T) {
	input := `{
		"choices": [
			{"message": {"role": "assistant", "content": "", "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"SF\"}"}}
			]}, "finish_reason": "tool_calls"}
		]
	}`
	out, err := OpenAIToAnthropicResponse(context.Background(), "claude-opus-4", []byte(input))
	require.NoError(t, err)

	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &obj))
	assert.Equal(t, "tool_use", obj["stop_reason"])
	content := obj["content"].([]interface{})
	block := content[0].(map[string]interface{})
	assert.Equal(t, "tool_use", block["type"])
	assert.Equal(t, "get_weather", block["name"])
}

func TestOpenAIToAnthropicStreamEmitsOrderedEvents(t *testing.T) {
	sse := "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2}}\n\n" +
		"data: [DONE]\n\n"

	out, err := OpenAIToAnthropicStream(context.Background(), "claude-opus-4", strings.NewReader(sse))
	require.NoError(t, err)

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var events []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}
	require.NoError(t, scanner.Err())

	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, "message_start", events[0])
	assert.Equal(t, "message_stop", events[len(events)-1])
	assert.Contains(t, events, "content_block_start")
	assert.Contains(t, events, "content_block_delta")
	assert.Contains(t, events, "message_delta")
}

func TestTranslateRequestViaHubRoutesAnthropicToGeminiThroughOpenAI(t *testing.T) {
	input := `{"messages":[{"role":"user","content":"hi"}]}`
	out := Default().TranslateRequestViaHub(FormatAnthropic, FormatGemini, "gemini-2.5-pro", []byte(input), false)

	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &obj))
	assert.NotNil(t, obj["contents"])
}

func TestSplitLeadingThinking(t *testing.T) {
	split := SplitLeadingThinking("<thinking>internal note</thinking>visible text")
	assert.Equal(t, "internal note", split.Thinking)
	assert.Equal(t, "visible text", split.Rest)

	split = SplitLeadingThinking("no tags here")
	assert.Equal(t, "", split.Thinking)
	assert.Equal(t, "no tags here", split.Rest)
}

func TestThinkingAccumulatorAcrossChunks(t *testing.T) {
	acc := &ThinkingAccumulator{}
	var thinking, content strings.Builder

	chunks := []string{"<thi", "nking>step one", " step two</thi", "nking>hello world"}
	for _, c := range chunks {
		th, co := acc.Feed(c)
		thinking.WriteString(th)
		content.WriteString(co)
	}
	th, co := acc.Flush()
	thinking.WriteString(th)
	content.WriteString(co)

	assert.Equal(t, "step one step two", thinking.String())
	assert.Equal(t, "hello world", content.String())
}

func TestSanitizeToolPairingDropsOrphans(t *testing.T) {
	messages := []interface{}{
		map[string]interface{}{
			"role": "assistant",
			"content": []interface{}{
				map[string]interface{}{"type": "tool_use", "id": "", "name": "calc", "input": map[string]interface{}{}},
			},
		},
		map[string]interface{}{
			"role": "user",
			"content": []interface{}{
				map[string]interface{}{"type": "tool_result", "tool_use_id": "missing", "content": "orphan result"},
			},
		},
	}
	out := SanitizeToolPairing(messages)

	assistantMsg := out[0].(map[string]interface{})
	assistantBlocks := assistantMsg["content"].([]interface{})
	assert.Empty(t, assistantBlocks, "unmatched tool_use should be dropped")

	userMsg := out[1].(map[string]interface{})
	userBlocks := userMsg["content"].([]interface{})
	require.Len(t, userBlocks, 1)
	textBlock := userBlocks[0].(map[string]interface{})
	assert.Equal(t, "text", textBlock["type"])
	assert.Equal(t, "orphan result", textBlock["text"])
}

func TestUsageRoundTrips(t *testing.T) {
	u := Usage{InputTokens: 100, OutputTokens: 50, CachedReadTokens: 10, CacheWriteTokens: 5}

	openaiUsage := u.ToOpenAI()
	assert.Equal(t, int64(105), openaiUsage["prompt_tokens"])

	anthropicUsage := u.ToAnthropic()
	assert.Equal(t, int64(100), anthropicUsage["input_tokens"])
	assert.Equal(t, int64(10), anthropicUsage["cache_read_input_tokens"])

	geminiUsage := u.ToGemini()
	assert.Equal(t, int64(110), geminiUsage["promptTokenCount"])
}
