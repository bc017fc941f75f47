package gateway

import (
	"bufio"
	"io"
	"net/http"

	apperrors "gwmux/internal/errors"
	"gwmux/internal/translator"
)

// errorFormatFor maps a wire format to the apperrors envelope shape it
// expects its error bodies in.
func errorFormatFor(f translator.Format) apperrors.ErrorFormat {
	switch f {
	case translator.FormatGemini:
		return apperrors.FormatGemini
	case translator.FormatAnthropic:
		return apperrors.FormatAnthropic
	default:
		return apperrors.FormatOpenAI
	}
}

// writeError serializes err in the destination format and writes the
// response (spec.md §7: client/credential/upstream errors all resolve to
// one destination-format error envelope).
func writeError(w http.ResponseWriter, format translator.Format, err *apiError) {
	if err.RetryAfter > 0 {
		w.Header().Set("Retry-After", itoa(err.RetryAfter))
	}
	payload, marshalErr := err.ToJSON(errorFormatFor(format))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	if marshalErr != nil {
		_, _ = w.Write([]byte(`{"error":{"message":"internal error serializing error response"}}`))
		return
	}
	_, _ = w.Write(payload)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// setSSEHeaders applies spec.md §4.10's streaming response headers.
func setSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// copySSE streams body to w, flushing after every line so the client sees
// each event as soon as it's produced instead of buffered until EOF.
func copySSE(w http.ResponseWriter, body io.Reader) error {
	flusher, _ := w.(http.Flusher)
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if _, werr := w.Write(line); werr != nil {
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
