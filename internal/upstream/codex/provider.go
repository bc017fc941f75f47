package codex

import (
	"context"
	"fmt"
	"strings"

	"gwmux/internal/config"
	"gwmux/internal/upstream"
)

// Provider implements upstream.Provider for the ChatGPT/Codex backend.
type Provider struct {
	cfg      *config.Config
	primary  *Client
	fallback *Client
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		cfg:      cfg,
		primary:  New(cfg).WithCaller("upstream"),
		fallback: NewFallback(cfg).WithCaller("upstream-fallback"),
	}
}

func (p *Provider) Name() string { return "codex" }

func (p *Provider) SupportsModel(baseModel string) bool {
	if baseModel == "" {
		return true
	}
	lower := strings.ToLower(baseModel)
	if strings.HasPrefix(lower, "gpt-5") || strings.HasPrefix(lower, "codex") || strings.HasPrefix(lower, "o3") || strings.HasPrefix(lower, "o4") {
		return true
	}
	for _, m := range p.cfg.ProviderDomains.CodexSupportedModels {
		if strings.EqualFold(m, baseModel) {
			return true
		}
	}
	return false
}

func (p *Provider) Stream(ctx upstream.RequestContext) upstream.ProviderResponse {
	return p.dispatch(ctx)
}

func (p *Provider) Generate(ctx upstream.RequestContext) upstream.ProviderResponse {
	return p.dispatch(ctx)
}

func (p *Provider) ListModels(ctx upstream.RequestContext) upstream.ProviderListResponse {
	models := append([]string{"gpt-5-codex", "gpt-5"}, p.cfg.ProviderDomains.CodexSupportedModels...)
	return upstream.ProviderListResponse{Models: models, Account: ctx.Account}
}

func (p *Provider) Invalidate(accountID string) {}

func (p *Provider) dispatch(ctx upstream.RequestContext) upstream.ProviderResponse {
	if ctx.Ctx == nil {
		ctx.Ctx = context.Background()
	}
	body := NormalizeRequest(ctx.Body)
	bearer := ""
	if ctx.Credential != nil {
		bearer = ctx.Credential.AccessToken
	}
	reqCtx := upstream.WithHeaderOverrides(ctx.Ctx, ctx.HeaderOverrides)
	resp, err := p.primary.Do(reqCtx, body, bearer, ctx.HeaderOverrides)
	return upstream.ProviderResponse{Resp: resp, UsedModel: ctx.BaseModel, Err: err, Account: ctx.Account}
}

// FallbackConfigured reports whether a fallback base URL and API key were
// supplied, per spec.md's Codex fallback sub-contract.
func (p *Provider) FallbackConfigured() bool {
	return p.fallback.Configured() && p.cfg.ProviderDomains.CodexFallbackAPIKey != ""
}

// DispatchFallback re-issues the request to the configured fallback
// endpoint, authenticating with the fallback API key instead of an
// account's OAuth token. It never retries on its own: a fallback failure is
// surfaced to the caller as an ordinary upstream error.
func (p *Provider) DispatchFallback(ctx upstream.RequestContext) upstream.ProviderResponse {
	if ctx.Ctx == nil {
		ctx.Ctx = context.Background()
	}
	if !p.FallbackConfigured() {
		return upstream.ProviderResponse{Err: fmt.Errorf("codex: fallback not configured"), UsedModel: ctx.BaseModel}
	}
	body := NormalizeRequest(ctx.Body)
	reqCtx := upstream.WithHeaderOverrides(ctx.Ctx, ctx.HeaderOverrides)
	resp, err := p.fallback.Do(reqCtx, body, "", ctx.HeaderOverrides)
	return upstream.ProviderResponse{Resp: resp, UsedModel: ctx.BaseModel, Err: err, Account: nil}
}
