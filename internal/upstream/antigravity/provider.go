package antigravity

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"gwmux/internal/config"
	"gwmux/internal/upstream"
)

// Provider dispatches to Antigravity, a Gemini-compatible upstream reached
// through its own base URL and account pool rather than Google's Code
// Assist endpoint. It speaks the same v1beta generateContent/
// streamGenerateContent dialect as internal/upstream/gemini, so the HTTP
// plumbing below mirrors that client's postJSON shape without the
// Code-Assist-specific model-fallback machinery Gemini needs.
type Provider struct {
	cfg *config.Config
	cli *http.Client
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{cfg: cfg, cli: &http.Client{}}
}

func (p *Provider) Name() string { return "antigravity" }

func (p *Provider) SupportsModel(baseModel string) bool {
	if baseModel == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(baseModel), "gemini-") || strings.HasPrefix(strings.ToLower(baseModel), "antigravity-")
}

func (p *Provider) endpoint(model string, stream bool) string {
	base := strings.TrimRight(p.cfg.ProviderDomains.AntigravityBaseURL, "/")
	action := "generateContent"
	if stream {
		action = "streamGenerateContent?alt=sse"
	}
	return base + "/v1beta/models/" + model + ":" + action
}

func (p *Provider) do(ctx upstream.RequestContext, stream bool) upstream.ProviderResponse {
	if ctx.Ctx == nil {
		ctx.Ctx = context.Background()
	}
	url := p.endpoint(ctx.BaseModel, stream)
	req, err := http.NewRequestWithContext(ctx.Ctx, http.MethodPost, url, bytes.NewReader(ctx.Body))
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

func (p *Provider) Stream(ctx upstream.RequestContext) upstream.ProviderResponse   { return p.do(ctx, true) }
func (p *Provider) Generate(ctx upstream.RequestContext) upstream.ProviderResponse { return p.do(ctx, false) }

func (p *Provider) ListModels(ctx upstream.RequestContext) upstream.ProviderListResponse {
	return upstream.ProviderListResponse{Models: []string{"gemini-2.5-pro", "gemini-2.5-flash"}, Account: ctx.Account}
}

func (p *Provider) Invalidate(accountID string) {}
