package usage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/tidwall/gjson"

	"gwmux/internal/translator"
)

// StreamTracker wraps an SSE response body and inspects each `data: {...}`
// line as it flows through, accumulating usage and success/failure state
// without buffering the whole stream (spec.md §4.9: "as the stream
// passes through ... inspect each data: {...} line"). Finalization runs
// from either EOF or Close, whichever happens first, so a client
// disconnect mid-stream still produces exactly one Commit.
type StreamTracker struct {
	body   io.ReadCloser
	store  Store
	entry  LogEntry
	start  time.Time

	buf        bytes.Buffer
	finalized  bool
	sawAnyData bool
}

// WrapStream builds a StreamTracker around body. entry carries the
// request-scoped fields (user, config_type, account, model, endpoint);
// TokenUsage/Success/HTTPStatus/DurationMS are filled in as the stream is
// read and on finalization.
func WrapStream(body io.ReadCloser, store Store, entry LogEntry) *StreamTracker {
	entry.Success = true // flipped false the first time an inline error is seen
	return &StreamTracker{body: body, store: store, entry: entry, start: time.Now()}
}

func (t *StreamTracker) Read(p []byte) (int, error) {
	n, err := t.body.Read(p)
	if n > 0 {
		t.ingest(p[:n])
	}
	if err == io.EOF {
		t.finalize(context.Background())
	}
	return n, err
}

// Close finalizes (if Read's EOF never fired, e.g. the client disconnected
// or the handler returned early) and closes the underlying body.
func (t *StreamTracker) Close() error {
	t.finalize(context.Background())
	return t.body.Close()
}

func (t *StreamTracker) ingest(chunk []byte) {
	t.buf.Write(chunk)
	for {
		data := t.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return
		}
		line := bytes.TrimRight(data[:idx], "\r")
		t.observeLine(line)
		t.buf.Next(idx + 1)
	}
}

const ssePrefix = "data: "

func (t *StreamTracker) observeLine(line []byte) {
	if !bytes.HasPrefix(line, []byte(ssePrefix)) {
		return
	}
	payload := bytes.TrimSpace(line[len(ssePrefix):])
	if len(payload) == 0 || bytes.Equal(payload, []byte("[DONE]")) {
		return
	}
	if !gjson.ValidBytes(payload) {
		return
	}
	t.sawAnyData = true
	root := gjson.ParseBytes(payload)

	if errObj := root.Get("error"); errObj.Exists() {
		t.entry.Success = false
		if msg := errObj.Get("message"); msg.Exists() {
			t.entry.ErrorMessage = msg.String()
		} else {
			t.entry.ErrorMessage = errObj.String()
		}
	}

	switch {
	case root.Get("usageMetadata").Exists():
		t.entry.TokenUsage = translator.UsageFromGemini(root.Get("usageMetadata"))
	case root.Get("usage").Exists():
		// OpenAI Chat/Responses both surface a top-level "usage" object on
		// their final chunk; Responses nests the same shape under
		// response.usage for response.completed events.
		t.entry.TokenUsage = translator.UsageFromOpenAI(root.Get("usage"))
	case root.Get("response.usage").Exists():
		t.entry.TokenUsage = translator.UsageFromOpenAI(root.Get("response.usage"))
	case root.Get("type").String() == "message_delta" && root.Get("usage").Exists():
		t.entry.TokenUsage = translator.UsageFromAnthropic(root.Get("usage"))
	}
	if tt := root.Get("usageMetadata.totalTokenCount"); tt.Exists() {
		t.entry.ObservedTotalTokens = tt.Int()
	} else if tt := root.Get("usage.total_tokens"); tt.Exists() {
		t.entry.ObservedTotalTokens = tt.Int()
	}
}

func (t *StreamTracker) finalize(ctx context.Context) {
	if t.finalized {
		return
	}
	t.finalized = true
	if !t.sawAnyData {
		t.entry.Success = false
	}
	t.entry.DurationMS = time.Since(t.start).Milliseconds()
	if t.store != nil {
		_ = t.store.Commit(ctx, t.entry)
	}
}
