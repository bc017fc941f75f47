package codex

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gwmux/internal/config"
	"gwmux/internal/constants"
)

// Client talks to the ChatGPT/Codex backend-api. Unlike the Gemini Code
// Assist client it does not need model-fallback: Codex exposes a single
// "responses" endpoint and the model name passes through unchanged.
type Client struct {
	cfg     *config.Config
	cli     *http.Client
	caller  string
	baseURL string
	apiKey  string // set only for the configured fallback client
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func newHTTPClient(cfg *config.Config) *http.Client {
	dialTO := durationOrDefault(cfg.DialTimeoutSec, constants.DefaultDialTimeout)
	tlsTO := durationOrDefault(cfg.TLSHandshakeTimeoutSec, constants.DefaultTLSHandshakeTimeout)
	hdrTO := durationOrDefault(cfg.ResponseHeaderTimeoutSec, constants.DefaultResponseHeaderTimeout)
	expTO := durationOrDefault(cfg.ExpectContinueTimeoutSec, constants.DefaultExpectContinueTimeout)

	tr := &http.Transport{
		Proxy: proxyFunc(cfg.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   dialTO,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsTO,
		ResponseHeaderTimeout: hdrTO,
		ExpectContinueTimeout: expTO,
		MaxIdleConns:          constants.BaseMaxIdleConns,
		MaxIdleConnsPerHost:   constants.BaseMaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: tr, Timeout: 0}
}

func proxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			return http.ProxyURL(parsed)
		}
	}
	return http.ProxyFromEnvironment
}

// New builds a client bound to the primary Codex base URL, dispatched with
// an account's own bearer token at call time.
func New(cfg *config.Config) *Client {
	base := strings.TrimRight(cfg.ProviderDomains.CodexBaseURL, "/")
	return &Client{cfg: cfg, cli: newHTTPClient(cfg), baseURL: base}
}

// NewFallback builds a client bound to the configured fallback base URL and
// API key, used only when no Codex account is available (spec.md's Codex
// fallback sub-contract).
func NewFallback(cfg *config.Config) *Client {
	base := strings.TrimRight(cfg.ProviderDomains.CodexFallbackBaseURL, "/")
	return &Client{cfg: cfg, cli: newHTTPClient(cfg), baseURL: base, apiKey: cfg.ProviderDomains.CodexFallbackAPIKey}
}

func (c *Client) WithCaller(caller string) *Client { c.caller = caller; return c }

func (c *Client) Configured() bool { return c.baseURL != "" }

// Do posts a normalized request body to the Codex responses endpoint.
// Caller owns closing resp.Body.
func (c *Client) Do(ctx context.Context, body []byte, bearer string, hdr http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathResponses, newReader(body))
	if err != nil {
		return nil, err
	}
	applyHeaders(req, bearer, c.apiKey, hdr)
	return c.cli.Do(req)
}
