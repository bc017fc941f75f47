package translator

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	thinkOpenTag  = "<thinking>"
	thinkCloseTag = "</thinking>"
)

// ThinkingSplit holds the result of peeling a leading <thinking> block off
// of a text blob.
type ThinkingSplit struct {
	Thinking string
	Rest     string
}

// SplitLeadingThinking extracts a leading <thinking>...</thinking> block
// from text, if present. Quoted or code-fenced occurrences of the tag are
// not delimiters — only a tag at the very start of the (trimmed) text opens
// a thinking block.
func SplitLeadingThinking(text string) ThinkingSplit {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(trimmed, thinkOpenTag) {
		return ThinkingSplit{Rest: text}
	}
	body := trimmed[len(thinkOpenTag):]
	if idx := strings.Index(body, thinkCloseTag); idx >= 0 {
		return ThinkingSplit{
			Thinking: body[:idx],
			Rest:     body[idx+len(thinkCloseTag):],
		}
	}
	return ThinkingSplit{Rest: text}
}

// ThinkingAccumulator incrementally peels a leading <thinking> block out of
// a stream of text chunks. Chunk boundaries can split the opening or
// closing tag, so it buffers up to len(tag)-1 bytes of lookahead before
// deciding whether a prefix is the start of a tag.
type ThinkingAccumulator struct {
	buf        strings.Builder
	started    bool // true once we've confirmed a <thinking> block opened
	closed     bool // true once the closing tag has been seen
	sawAnyText bool // true once any non-whitespace text has arrived
}

// Feed appends a chunk of raw text and returns the portion that should be
// emitted as thinking content and the portion that should be emitted as
// normal content for this chunk. Call Flush at stream end to recover any
// buffered, still-undecided text.
func (t *ThinkingAccumulator) Feed(chunk string) (thinking string, content string) {
	if t.closed {
		return "", chunk
	}
	if !t.sawAnyText && strings.TrimSpace(chunk) != "" {
		t.sawAnyText = true
	}
	t.buf.WriteString(chunk)
	buffered := t.buf.String()

	if !t.started {
		trimmed := strings.TrimLeft(buffered, " \t\r\n")
		if len(trimmed) < len(thinkOpenTag) && strings.HasPrefix(thinkOpenTag, trimmed) {
			// Not enough bytes yet to tell; keep buffering.
			return "", ""
		}
		if !strings.HasPrefix(trimmed, thinkOpenTag) {
			t.buf.Reset()
			return "", buffered
		}
		t.started = true
		buffered = trimmed[len(thinkOpenTag):]
		t.buf.Reset()
		t.buf.WriteString(buffered)
	}

	buffered = t.buf.String()
	if idx := strings.Index(buffered, thinkCloseTag); idx >= 0 {
		thinking = buffered[:idx]
		content = buffered[idx+len(thinkCloseTag):]
		t.closed = true
		t.buf.Reset()
		return thinking, content
	}

	// Hold back enough bytes that a split close-tag isn't missed.
	holdBack := len(thinkCloseTag) - 1
	if len(buffered) <= holdBack {
		return "", ""
	}
	emit := buffered[:len(buffered)-holdBack]
	t.buf.Reset()
	t.buf.WriteString(buffered[len(buffered)-holdBack:])
	return emit, ""
}

// Flush returns any buffered content at stream end. An unclosed <thinking>
// block at end of stream emits its buffered content as thinking with a
// warning, per the reconciliation rule for truncated streams.
func (t *ThinkingAccumulator) Flush() (thinking string, content string) {
	remaining := t.buf.String()
	t.buf.Reset()
	if remaining == "" {
		return "", ""
	}
	if t.started && !t.closed {
		log.Warnf("translator: stream ended with unclosed <thinking> block, emitting %d buffered bytes as thinking", len(remaining))
		return remaining, ""
	}
	return "", remaining
}
