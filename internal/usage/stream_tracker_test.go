package usage

import (
	"context"
	"io"
	"strings"
	"testing"
)

type fakeStore struct {
	entries []LogEntry
}

func (f *fakeStore) Commit(_ context.Context, e LogEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func readAllAndClose(t *testing.T, rc io.ReadCloser) {
	t.Helper()
	if _, err := io.Copy(io.Discard, rc); err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStreamTrackerOpenAIUsage(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"id\":\"1\",\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n" +
			"data: {\"id\":\"1\",\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":1,\"total_tokens\":4}}\n\n" +
			"data: [DONE]\n\n"))
	store := &fakeStore{}
	tr := WrapStream(body, store, LogEntry{UserID: "u1", ConfigType: "codex"})
	readAllAndClose(t, tr)

	if len(store.entries) != 1 {
		t.Fatalf("expected exactly one commit, got %d", len(store.entries))
	}
	e := store.entries[0]
	if !e.Success {
		t.Fatalf("expected success=true")
	}
	if e.TotalTokens() != 4 {
		t.Fatalf("expected total tokens 4, got %d", e.TotalTokens())
	}
}

func TestStreamTrackerGeminiUsage(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"hi\"}]}}],\"usageMetadata\":{\"promptTokenCount\":5,\"candidatesTokenCount\":2,\"totalTokenCount\":7}}\n\n"))
	store := &fakeStore{}
	tr := WrapStream(body, store, LogEntry{UserID: "u1", ConfigType: "antigravity"})
	readAllAndClose(t, tr)

	e := store.entries[0]
	if e.TotalTokens() != 7 {
		t.Fatalf("expected total tokens 7, got %d", e.TotalTokens())
	}
}

func TestStreamTrackerDetectsInlineError(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"error\":{\"message\":\"upstream exploded\",\"type\":\"server_error\"}}\n\n"))
	store := &fakeStore{}
	tr := WrapStream(body, store, LogEntry{UserID: "u1", ConfigType: "codex"})
	readAllAndClose(t, tr)

	e := store.entries[0]
	if e.Success {
		t.Fatalf("expected success=false after inline error")
	}
	if e.ErrorMessage != "upstream exploded" {
		t.Fatalf("unexpected error message: %q", e.ErrorMessage)
	}
}

func TestStreamTrackerCommitsOnceOnEarlyClose(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n"))
	store := &fakeStore{}
	tr := WrapStream(body, store, LogEntry{UserID: "u1", ConfigType: "codex"})

	buf := make([]byte, 8)
	_, _ = tr.Read(buf) // partial read, client disconnects before EOF
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected exactly one commit across Close calls, got %d", len(store.entries))
	}
}

func TestStreamTrackerNoDataMarksFailure(t *testing.T) {
	body := io.NopCloser(strings.NewReader(""))
	store := &fakeStore{}
	tr := WrapStream(body, store, LogEntry{UserID: "u1", ConfigType: "codex"})
	readAllAndClose(t, tr)

	if store.entries[0].Success {
		t.Fatalf("expected success=false when no data lines were observed")
	}
}
