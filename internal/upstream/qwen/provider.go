package qwen

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/sjson"

	"gwmux/internal/config"
	"gwmux/internal/upstream"
)

// Provider dispatches to Qwen's OpenAI-compatible chat-completions endpoint
// (DashScope compatible-mode). It needs no wire-format translation of its
// own: requests already arrive pivoted through FormatOpenAI, so this
// dispatcher only has to set the provider's base URL, auth header, and
// strip fields DashScope rejects.
type Provider struct {
	cfg *config.Config
	cli *http.Client
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{cfg: cfg, cli: &http.Client{}}
}

func (p *Provider) Name() string { return "qwen" }

func (p *Provider) SupportsModel(baseModel string) bool {
	if baseModel == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(baseModel), "qwen")
}

func normalizeRequest(body []byte) []byte {
	out, _ := sjson.DeleteBytes(body, "parallel_tool_calls")
	return out
}

func (p *Provider) do(ctx upstream.RequestContext) upstream.ProviderResponse {
	if ctx.Ctx == nil {
		ctx.Ctx = context.Background()
	}
	base := strings.TrimRight(p.cfg.ProviderDomains.QwenBaseURL, "/")
	body := normalizeRequest(ctx.Body)
	req, err := http.NewRequestWithContext(ctx.Ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return upstream.ProviderResponse{Err: err, UsedModel: ctx.BaseModel, Account: ctx.Account}
	}
	req.Header.Set("Content-Type", "application/json")
	if ctx.Credential != nil && ctx.Credential.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+ctx.Credential.AccessToken)
	}
	for key, values := range ctx.HeaderOverrides {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	resp, err := p.cli.Do(req)
	return upstream.ProviderResponse{Resp: resp, UsedModel: ctx.BaseModel, Err: err, Account: ctx.Account}
}

func (p *Provider) Stream(ctx upstream.RequestContext) upstream.ProviderResponse   { return p.do(ctx) }
func (p *Provider) Generate(ctx upstream.RequestContext) upstream.ProviderResponse { return p.do(ctx) }

func (p *Provider) ListModels(ctx upstream.RequestContext) upstream.ProviderListResponse {
	return upstream.ProviderListResponse{Models: []string{"qwen-max", "qwen-plus", "qwen-turbo"}, Account: ctx.Account}
}

func (p *Provider) Invalidate(accountID string) {}
