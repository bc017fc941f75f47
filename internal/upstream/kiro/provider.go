package kiro

import (
	"context"
	"strings"

	"gwmux/internal/config"
	"gwmux/internal/upstream"
)

// Provider implements upstream.Provider for AWS CodeWhisperer/Kiro.
type Provider struct {
	cfg    *config.Config
	client *Client
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{cfg: cfg, client: New(cfg).WithCaller("upstream")}
}

func (p *Provider) Name() string { return "kiro" }

func (p *Provider) SupportsModel(baseModel string) bool {
	if baseModel == "" {
		return true
	}
	return strings.Contains(strings.ToLower(baseModel), "claude")
}

func (p *Provider) Stream(ctx upstream.RequestContext) upstream.ProviderResponse {
	if ctx.Ctx == nil {
		ctx.Ctx = context.Background()
	}
	bearer := ""
	if ctx.Credential != nil {
		bearer = ctx.Credential.AccessToken
	}
	reqCtx := upstream.WithHeaderOverrides(ctx.Ctx, ctx.HeaderOverrides)
	resp, err := p.client.Stream(reqCtx, ctx.Body, bearer, ctx.HeaderOverrides)
	if err == nil && resp != nil && resp.StatusCode < 300 {
		resp.Body = AdaptStream(resp.Body, ctx.BaseModel)
	}
	return upstream.ProviderResponse{Resp: resp, UsedModel: ctx.BaseModel, Err: err, Account: ctx.Account}
}

func (p *Provider) Generate(ctx upstream.RequestContext) upstream.ProviderResponse {
	return p.Stream(ctx)
}

func (p *Provider) ListModels(ctx upstream.RequestContext) upstream.ProviderListResponse {
	return upstream.ProviderListResponse{Models: []string{"claude-sonnet-4"}, Account: ctx.Account}
}

func (p *Provider) Invalidate(accountID string) {}
