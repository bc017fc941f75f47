package codex

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestNormalizeRequestForcesStreamingAndStrips(t *testing.T) {
	in := []byte(`{"model":"gpt-5-codex","temperature":0.7,"top_p":0.9,"max_output_tokens":4096,"stream":false,"store":true}`)
	out := NormalizeRequest(in)

	if !gjson.GetBytes(out, "stream").Bool() {
		t.Fatalf("expected stream=true")
	}
	if gjson.GetBytes(out, "store").Bool() {
		t.Fatalf("expected store=false")
	}
	if !gjson.GetBytes(out, "parallel_tool_calls").Bool() {
		t.Fatalf("expected parallel_tool_calls=true")
	}
	if gjson.GetBytes(out, "temperature").Exists() {
		t.Fatalf("expected temperature stripped")
	}
	if gjson.GetBytes(out, "top_p").Exists() {
		t.Fatalf("expected top_p stripped")
	}
	if gjson.GetBytes(out, "max_output_tokens").Exists() {
		t.Fatalf("expected max_output_tokens stripped")
	}
	include := gjson.GetBytes(out, "include").Array()
	if len(include) != 1 || include[0].String() != "reasoning.encrypted_content" {
		t.Fatalf("expected include=[reasoning.encrypted_content], got %v", include)
	}
}

func TestNormalizeRequestDefaultsInstructions(t *testing.T) {
	out := NormalizeRequest([]byte(`{"model":"gpt-5"}`))
	if gjson.GetBytes(out, "instructions").String() != "" {
		t.Fatalf("expected empty instructions default")
	}

	withInstructions := NormalizeRequest([]byte(`{"model":"gpt-5","instructions":"be terse"}`))
	if got := gjson.GetBytes(withInstructions, "instructions").String(); got != "be terse" {
		t.Fatalf("expected existing instructions preserved, got %q", got)
	}
}
