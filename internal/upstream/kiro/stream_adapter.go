package kiro

import (
	"bufio"
	"encoding/json"
	"io"
)

// streamAdapter wraps a raw AWS event-stream http.Response.Body and
// re-emits it as OpenAI chat-completions SSE ("data: {...}\n\n"), so the
// rest of the pipeline can translate it with the same OpenAI-format stream
// transforms used for every other provider instead of a bespoke Kiro format.
type streamAdapter struct {
	src    io.ReadCloser
	pr     *io.PipeReader
	pw     *io.PipeWriter
	model  string
}

// AdaptStream starts a goroutine that decodes src as AWS event-stream
// frames and writes OpenAI-shaped SSE chunks into the returned reader.
func AdaptStream(src io.ReadCloser, model string) io.ReadCloser {
	pr, pw := io.Pipe()
	a := &streamAdapter{src: src, pr: pr, pw: pw, model: model}
	go a.run()
	return pr
}

func (a *streamAdapter) run() {
	defer a.src.Close()
	dec := NewDecoder()
	buf := make([]byte, 8192)
	reader := bufio.NewReaderSize(a.src, 8192)

	closeWith := func(err error) { _ = a.pw.CloseWithError(err) }

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			frames, decErr := dec.Feed(buf[:n])
			for _, f := range frames {
				if writeErr := a.emit(f); writeErr != nil {
					closeWith(writeErr)
					return
				}
			}
			if decErr != nil {
				closeWith(decErr)
				return
			}
		}
		if err == io.EOF {
			_ = a.writeChunk(chatChunk(a.model, "", true))
			closeWith(nil)
			return
		}
		if err != nil {
			closeWith(err)
			return
		}
	}
}

func (a *streamAdapter) emit(f Frame) error {
	ev := ParseAssistantEvent(f)
	if ev.Content != "" {
		return a.writeChunk(chatChunk(a.model, ev.Content, false))
	}
	if ev.ToolName != "" {
		return a.writeChunk(toolChunk(a.model, ev.ToolUseID, ev.ToolName, ev.ToolInput))
	}
	return nil
}

func (a *streamAdapter) writeChunk(payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = a.pw.Write(append(append([]byte("data: "), b...), '\n', '\n'))
	return err
}

func chatChunk(model, content string, final bool) map[string]interface{} {
	delta := map[string]interface{}{}
	finish := interface{}(nil)
	if final {
		finish = "stop"
	} else {
		delta["content"] = content
	}
	return map[string]interface{}{
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []interface{}{
			map[string]interface{}{
				"index":         0,
				"delta":         delta,
				"finish_reason": finish,
			},
		},
	}
}

func toolChunk(model, id, name, argsJSON string) map[string]interface{} {
	return map[string]interface{}{
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []interface{}{
			map[string]interface{}{
				"index": 0,
				"delta": map[string]interface{}{
					"tool_calls": []interface{}{
						map[string]interface{}{
							"index": 0,
							"id":    id,
							"type":  "function",
							"function": map[string]interface{}{
								"name":      name,
								"arguments": argsJSON,
							},
						},
					},
				},
				"finish_reason": nil,
			},
		},
	}
}
