package gateway

import (
	"bytes"
	"io"

	"github.com/tidwall/gjson"

	"gwmux/internal/translator"
)

// chainedReadCloser reads from r (the translated stream) but closes
// underlying instead, since translator.Registry.TranslateStream returns a
// plain io.Reader while the real resource needing closing is the
// upstream http.Response.Body it was built from.
type chainedReadCloser struct {
	r          io.Reader
	underlying io.Closer
}

func readCloserOver(r io.Reader, underlying io.Closer) io.ReadCloser {
	return &chainedReadCloser{r: r, underlying: underlying}
}

func (c *chainedReadCloser) Read(p []byte) (int, error) { return c.r.Read(p) }
func (c *chainedReadCloser) Close() error                { return c.underlying.Close() }

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// usageFromResponse extracts a final non-streaming response's usage
// object in whatever shape the destination wire format uses.
func usageFromResponse(format translator.Format, body []byte) translator.Usage {
	if !gjson.ValidBytes(body) {
		return translator.Usage{}
	}
	root := gjson.ParseBytes(body)
	switch format {
	case translator.FormatGemini:
		return translator.UsageFromGemini(root.Get("usageMetadata"))
	case translator.FormatAnthropic:
		return translator.UsageFromAnthropic(root.Get("usage"))
	default:
		if u := root.Get("usage"); u.Exists() {
			return translator.UsageFromOpenAI(u)
		}
		return translator.UsageFromOpenAI(root.Get("response.usage"))
	}
}
