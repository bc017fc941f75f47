package zai

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"gwmux/internal/accounts"
	"gwmux/internal/config"
	"gwmux/internal/credential"
)

// Z.AI's TTS and Image endpoints are not chat providers and don't speak any
// of the four client-facing wire formats, so they sit outside
// upstream.Provider/Manager: the gateway dispatches to them directly from
// the zai-tts/zai-image config-type branch instead of through the
// translator hub.
type Client struct {
	cfg     *config.Config
	cli     *http.Client
	baseURL string
}

func newClient(cfg *config.Config, baseURL string) *Client {
	return &Client{cfg: cfg, cli: &http.Client{}, baseURL: strings.TrimRight(baseURL, "/")}
}

func NewTTS(cfg *config.Config) *Client   { return newClient(cfg, cfg.ProviderDomains.ZAITTSBaseURL) }
func NewImage(cfg *config.Config) *Client { return newClient(cfg, cfg.ProviderDomains.ZAIImageBaseURL) }

func (c *Client) do(ctx context.Context, path string, body []byte, acct *accounts.Account, cred *credential.JSON, hdr http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.ProviderDomains.ZAIUserAgent)
	if cred != nil && cred.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	}
	for key, values := range hdr {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return c.cli.Do(req)
}

// Synthesize calls the TTS endpoint.
func (c *Client) Synthesize(ctx context.Context, body []byte, acct *accounts.Account, cred *credential.JSON, hdr http.Header) (*http.Response, error) {
	return c.do(ctx, "/audio/speech", body, acct, cred, hdr)
}

// GenerateImage calls the image-generation endpoint.
func (c *Client) GenerateImage(ctx context.Context, body []byte, acct *accounts.Account, cred *credential.JSON, hdr http.Header) (*http.Response, error) {
	return c.do(ctx, "/images/generations", body, acct, cred, hdr)
}
