package kiro

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"gwmux/internal/config"
	"gwmux/internal/constants"
)

// Client talks to the AWS CodeWhisperer generateAssistantResponse endpoint.
type Client struct {
	cfg     *config.Config
	cli     *http.Client
	caller  string
	baseURL string
}

func New(cfg *config.Config) *Client {
	tr := &http.Transport{
		ResponseHeaderTimeout: durationOrDefault(cfg.ResponseHeaderTimeoutSec, constants.DefaultResponseHeaderTimeout),
		TLSHandshakeTimeout:   durationOrDefault(cfg.TLSHandshakeTimeoutSec, constants.DefaultTLSHandshakeTimeout),
		ExpectContinueTimeout: durationOrDefault(cfg.ExpectContinueTimeoutSec, constants.DefaultExpectContinueTimeout),
		MaxIdleConns:          constants.BaseMaxIdleConns,
		MaxIdleConnsPerHost:   constants.BaseMaxIdleConnsPerHost,
	}
	base := strings.TrimRight(cfg.ProviderDomains.KiroBaseURL, "/")
	return &Client{cfg: cfg, cli: &http.Client{Transport: tr}, baseURL: base}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func (c *Client) WithCaller(caller string) *Client { c.caller = caller; return c }

// Stream posts the request and returns the raw event-stream body for the
// caller to decode with Decoder.
func (c *Client) Stream(ctx context.Context, body []byte, bearer string, hdr http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generateAssistantResponse", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.0")
	req.Header.Set("Accept", "application/vnd.amazon.eventstream")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
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

// DecodeAll reads the whole body and decodes every frame it can, for
// non-streaming (buffered) callers.
func DecodeAll(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d := NewDecoder()
	return d.Feed(data)
}
