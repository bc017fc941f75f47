package codex

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// NormalizeRequest rewrites a Responses-API payload the way the ChatGPT
// Codex backend expects it: it only ever streams, never persists a
// conversation, always runs tool calls in parallel, and always asks for the
// encrypted reasoning blob back so the next turn can replay it. Codex also
// rejects the plain-completion knobs (temperature/top_p/max_output_tokens)
// that a client may have carried over from an OpenAI chat-completions
// request, so those are stripped rather than forwarded.
func NormalizeRequest(body []byte) []byte {
	out := body
	out, _ = sjson.SetBytes(out, "stream", true)
	out, _ = sjson.SetBytes(out, "store", false)
	out, _ = sjson.SetBytes(out, "parallel_tool_calls", true)
	out, _ = sjson.SetBytes(out, "include", []string{"reasoning.encrypted_content"})
	if !gjson.GetBytes(out, "instructions").Exists() {
		out, _ = sjson.SetBytes(out, "instructions", "")
	}
	for _, field := range []string{"max_output_tokens", "temperature", "top_p"} {
		out, _ = sjson.DeleteBytes(out, field)
	}
	return out
}
