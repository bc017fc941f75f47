package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gwmux/internal/accounts"
	"gwmux/internal/cache"
	"gwmux/internal/config"
	"gwmux/internal/credential"
	"gwmux/internal/crypto"
	"gwmux/internal/selector"
	"gwmux/internal/translator"
	"gwmux/internal/upstream"
	"gwmux/internal/usage"
)

func TestResolveConfigTypePrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	if ct := ResolveConfigType(Principal{}, req); ct != DefaultConfigType {
		t.Fatalf("expected default config type, got %q", ct)
	}

	req.Header.Set("X-Api-Type", "codex")
	if ct := ResolveConfigType(Principal{}, req); ct != accounts.ProviderCodex {
		t.Fatalf("expected header to select codex, got %q", ct)
	}

	req.Header.Set("X-Api-Type", "not-a-real-provider")
	if ct := ResolveConfigType(Principal{}, req); ct != DefaultConfigType {
		t.Fatalf("expected invalid header to fall back to default, got %q", ct)
	}

	p := Principal{ConfigTypeMarker: accounts.ProviderKiro}
	req.Header.Set("X-Api-Type", "codex")
	if ct := ResolveConfigType(p, req); ct != accounts.ProviderKiro {
		t.Fatalf("expected principal marker to take precedence, got %q", ct)
	}
}

func TestResolvePrincipalRequiresBearerOrGoogAPIKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	if _, aerr := ResolvePrincipal(req); aerr == nil {
		t.Fatalf("expected missing-token error")
	}

	req.Header.Set("Authorization", "Bearer user-123")
	req.Header.Set("X-Kiro-Beta", "true")
	req.Header.Set("X-Trust-Level", "3")
	p, aerr := ResolvePrincipal(req)
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if p.UserID != "user-123" || !p.Beta || p.TrustLevel != 3 {
		t.Fatalf("unexpected principal: %+v", p)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-pro:generateContent", nil)
	req2.Header.Set("x-goog-api-key", "goog-key")
	p2, aerr := ResolvePrincipal(req2)
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if p2.UserID != "goog-key" {
		t.Fatalf("expected x-goog-api-key to seed UserID, got %q", p2.UserID)
	}
}

func TestCheckPermissionGatesKiroOnly(t *testing.T) {
	cfg := &config.Config{}
	cfg.ProviderDomains.KiroRequireBeta = true
	cfg.ProviderDomains.KiroMinTrustLevel = 5
	g := &Gateway{cfg: cfg}

	if aerr := g.checkPermission(accounts.ProviderCodex, Principal{}); aerr != nil {
		t.Fatalf("codex should never be gated, got %v", aerr)
	}
	if aerr := g.checkPermission(accounts.ProviderKiro, Principal{}); aerr == nil {
		t.Fatalf("expected kiro to reject a principal with no beta/trust")
	}
	if aerr := g.checkPermission(accounts.ProviderKiro, Principal{Beta: true}); aerr != nil {
		t.Fatalf("expected beta flag to satisfy kiro gate, got %v", aerr)
	}
}

func TestErrFromSelectorMapsKnownErrors(t *testing.T) {
	aerr := errFromSelector(&selector.ErrNoCandidates{Reason: "no enabled accounts"})
	if aerr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", aerr.HTTPStatus)
	}

	aerr = errFromSelector(&selector.ErrExhausted{EarliestAt: time.Now().Add(30 * time.Second)})
	if aerr.HTTPStatus != http.StatusTooManyRequests || aerr.RetryAfter <= 0 {
		t.Fatalf("expected 429 with retry-after, got status=%d retry=%d", aerr.HTTPStatus, aerr.RetryAfter)
	}
}

func TestWriteErrorSetsRetryAfterHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, translator.FormatOpenAI, &apiError{HTTPStatus: 429, Code: "rate_limit_exceeded", Message: "slow down", RetryAfter: 7})
	if rec.Header().Get("Retry-After") != "7" {
		t.Fatalf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Code != 429 {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
}

func TestCopySSEFlushesLineByLine(t *testing.T) {
	rec := httptest.NewRecorder()
	body := io.NopCloser(strings.NewReader("data: one\n\ndata: two\n\n"))
	if err := copySSE(rec, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Body.String(); got != "data: one\n\ndata: two\n\n" {
		t.Fatalf("unexpected body: %q", got)
	}
}

// fakeProvider is a minimal upstream.Provider double for exercising
// Dispatch end to end without a network call.
type fakeProvider struct {
	name   string
	status int
	body   string
	stream bool
}

func (f *fakeProvider) Name() string                        { return f.name }
func (f *fakeProvider) SupportsModel(string) bool            { return true }
func (f *fakeProvider) Invalidate(string)                    {}
func (f *fakeProvider) ListModels(upstream.RequestContext) upstream.ProviderListResponse {
	return upstream.ProviderListResponse{Models: []string{"fake-model"}}
}

func (f *fakeProvider) respond() upstream.ProviderResponse {
	resp := &http.Response{
		StatusCode: f.status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}
	return upstream.ProviderResponse{Resp: resp}
}

func (f *fakeProvider) Stream(upstream.RequestContext) upstream.ProviderResponse   { return f.respond() }
func (f *fakeProvider) Generate(upstream.RequestContext) upstream.ProviderResponse { return f.respond() }

func newTestGateway(t *testing.T, provider upstream.Provider) (*Gateway, *accounts.MemoryRepository) {
	t.Helper()
	repo := accounts.NewMemoryRepository()
	kv := cache.NewMemoryCache(time.Minute)
	box, err := crypto.NewSecretBox("unit-test-key-material")
	if err != nil {
		t.Fatalf("secret box: %v", err)
	}
	credMgr := credential.NewManager(repo, kv, box)
	sel := selector.New(repo, kv)

	g := New(&config.Config{}, Dependencies{
		Selector:   sel,
		Credential: credMgr,
		Providers:  upstream.NewManager(provider),
		Translator: translator.Default(),
		Tracker:    usage.NewTracker(nil),
	})
	g.providerNames = map[accounts.Provider]string{accounts.ProviderCodex: provider.Name()}
	return g, repo
}

func seedAccount(t *testing.T, g *Gateway, repo *accounts.MemoryRepository, userID string) {
	t.Helper()
	_, err := g.credential.Upsert(context.Background(), accounts.ProviderCodex, userID, &credential.JSON{AccountID: "acct-1", AccessToken: "sk-test"}, "test account")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_ = repo
}

func TestDispatchNonStreamSuccess(t *testing.T) {
	provider := &fakeProvider{name: "codex", status: 200, body: `{"id":"resp-1","object":"response","output":[],"usage":{"input_tokens":5,"output_tokens":2,"total_tokens":7}}`}
	g, repo := newTestGateway(t, provider)
	seedAccount(t, g, repo, "user-1")

	result, aerr := g.Dispatch(httptest.NewRequest(http.MethodPost, "/v1/responses", nil).Context(), DispatchRequest{
		ConfigType: accounts.ProviderCodex,
		Principal:  Principal{UserID: "user-1"},
		Model:      "gpt-5",
		Endpoint:   "/v1/responses",
		WireFormat: translator.FormatOpenAIResponses,
		Body:       []byte(`{"model":"gpt-5","input":[]}`),
		Headers:    make(http.Header),
	})
	if aerr != nil {
		t.Fatalf("unexpected dispatch error: %v", aerr)
	}
	if result.HTTPStatus != 200 || result.Stream {
		t.Fatalf("unexpected result: %+v", result)
	}
	defer result.Body.Close()
	out, _ := io.ReadAll(result.Body)
	if !strings.Contains(string(out), "resp-1") {
		t.Fatalf("expected translated body to carry through response id, got %q", out)
	}
}

func TestDispatchNoCandidatesReturnsBadRequest(t *testing.T) {
	provider := &fakeProvider{name: "codex", status: 200, body: `{}`}
	g, _ := newTestGateway(t, provider)

	_, aerr := g.Dispatch(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil).Context(), DispatchRequest{
		ConfigType: accounts.ProviderCodex,
		Principal:  Principal{UserID: "nobody"},
		Model:      "gpt-5",
		Endpoint:   "/v1/chat/completions",
		WireFormat: translator.FormatOpenAI,
		Body:       []byte(`{}`),
		Headers:    make(http.Header),
	})
	if aerr == nil || aerr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400 bad request for no candidates, got %v", aerr)
	}
}

func TestDispatchUnknownConfigTypeIsBadRequest(t *testing.T) {
	provider := &fakeProvider{name: "codex", status: 200, body: `{}`}
	g, _ := newTestGateway(t, provider)

	_, aerr := g.Dispatch(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil).Context(), DispatchRequest{
		ConfigType: accounts.ProviderQwen,
		Principal:  Principal{UserID: "user-1"},
		Model:      "whatever",
		Endpoint:   "/v1/chat/completions",
		WireFormat: translator.FormatOpenAI,
		Body:       []byte(`{}`),
		Headers:    make(http.Header),
	})
	if aerr == nil || aerr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400 for unregistered config_type, got %v", aerr)
	}
}

func TestBearerTokenParsesURLEncodedScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?"+url.Values{}.Encode(), nil)
	req.Header.Set("Authorization", "Bearer   spaced-token  ")
	if got := bearerToken(req); got != "spaced-token" {
		t.Fatalf("expected trimmed token, got %q", got)
	}
}
