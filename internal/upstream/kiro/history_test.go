package kiro

import "testing"

func TestMergeHistoryCollapsesConsecutiveRoles(t *testing.T) {
	in := []Turn{
		{Role: "user", Content: "a"},
		{Role: "user", Content: "b"},
		{Role: "assistant", Content: "c"},
	}
	out := MergeHistory(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(out))
	}
	if out[0].Content != "a\n\nb" {
		t.Fatalf("unexpected merged content: %q", out[0].Content)
	}
}

func TestMergeHistoryAppendsSyntheticOKOnTrailingUser(t *testing.T) {
	in := []Turn{
		{Role: "user", Content: "hello"},
	}
	out := MergeHistory(in)
	if len(out) != 2 {
		t.Fatalf("expected synthetic assistant turn appended, got %d turns", len(out))
	}
	if out[1].Role != "assistant" || out[1].Content != "OK" {
		t.Fatalf("unexpected synthetic turn: %+v", out[1])
	}
}

func TestMergeHistoryLeavesTrailingAssistantAlone(t *testing.T) {
	in := []Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	out := MergeHistory(in)
	if len(out) != 2 {
		t.Fatalf("expected no synthetic turn appended, got %d turns", len(out))
	}
}
