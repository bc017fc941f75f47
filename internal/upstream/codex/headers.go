package codex

import (
	"bytes"
	"io"
	"net/http"
)

func newReader(body []byte) io.Reader { return bytes.NewReader(body) }

// applyHeaders sets the Codex-dialect headers. apiKey, when non-empty,
// overrides bearer (used for the fallback client, which authenticates with
// a plain API key rather than an account's OAuth token).
func applyHeaders(req *http.Request, bearer, apiKey string, overrides http.Header) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("OpenAI-Beta", "responses=experimental")
	switch {
	case apiKey != "":
		req.Header.Set("Authorization", "Bearer "+apiKey)
	case bearer != "":
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for key, values := range overrides {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}
