package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"gwmux/internal/accounts"
	"gwmux/internal/cache"
)

const pkceStateTTL = 10 * time.Minute

// ProviderEndpoint is the fixed client configuration a PKCE-capable
// provider authorizes and exchanges tokens against (spec.md §4.4: "the
// provider's fixed client_id and redirect URI").
type ProviderEndpoint struct {
	AuthURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

type pkceSession struct {
	UserID       string    `json:"user_id"`
	CodeVerifier string    `json:"code_verifier"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}

// StartPKCE generates a 96-byte verifier, derives its S256 challenge,
// mints a 32-hex state, and persists the session in the cache under
// pkce_state:{state} with a 10-minute TTL (spec.md §4.4, §4.2).
func (m *Manager) StartPKCE(ctx context.Context, ep ProviderEndpoint, provider accounts.Provider, userID string) (authURL, state string, err error) {
	verifier, err := randomURLSafe(96)
	if err != nil {
		return "", "", fmt.Errorf("credential: generate verifier: %w", err)
	}
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", "", fmt.Errorf("credential: generate state: %w", err)
	}
	state = hex.EncodeToString(stateBytes)

	sess := pkceSession{UserID: userID, CodeVerifier: verifier, Provider: string(provider), CreatedAt: time.Now()}
	if err := cache.SetJSON(ctx, m.cache, cache.PKCEStateKey(state), sess, pkceStateTTL); err != nil {
		return "", "", fmt.Errorf("credential: persist pkce session: %w", err)
	}

	challenge := codeChallengeS256(verifier)
	q := url.Values{}
	q.Set("client_id", ep.ClientID)
	q.Set("redirect_uri", ep.RedirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	if len(ep.Scopes) > 0 {
		q.Set("scope", strings.Join(ep.Scopes, " "))
	}
	authURL = ep.AuthURL + "?" + q.Encode()
	log.WithField("provider", provider).Info("credential: pkce flow started")
	return authURL, state, nil
}

// ParseCallback extracts code and state from any of the four shapes
// spec.md §4.4 names: absolute URL, leading "?query", bare "k=v&k=v",
// or fragment "#k=v".
func ParseCallback(input string) (code, state string, err error) {
	input = strings.TrimSpace(input)
	var raw string
	switch {
	case strings.Contains(input, "://"):
		u, perr := url.Parse(input)
		if perr != nil {
			return "", "", fmt.Errorf("credential: parse callback url: %w", perr)
		}
		raw = u.RawQuery
		if raw == "" {
			raw = strings.TrimPrefix(u.Fragment, "")
		}
	case strings.HasPrefix(input, "?"):
		raw = input[1:]
	case strings.HasPrefix(input, "#"):
		raw = input[1:]
	default:
		raw = input
	}
	values, perr := url.ParseQuery(raw)
	if perr != nil {
		return "", "", fmt.Errorf("credential: parse callback query: %w", perr)
	}
	code = values.Get("code")
	state = values.Get("state")
	if code == "" || state == "" {
		return "", "", fmt.Errorf("credential: callback missing code or state")
	}
	return code, state, nil
}

// ExchangeCallback loads the PKCE session for state, verifies it
// belongs to userID, exchanges code for tokens against ep, and returns
// the raw token response plus the provider that started the flow.
func (m *Manager) ExchangeCallback(ctx context.Context, ep ProviderEndpoint, userID, code, state string) (*tokenResponse, accounts.Provider, error) {
	var sess pkceSession
	if err := cache.GetJSON(ctx, m.cache, cache.PKCEStateKey(state), &sess); err != nil {
		return nil, "", fmt.Errorf("credential: pkce session not found or expired: %w", err)
	}
	if sess.UserID != userID {
		return nil, "", fmt.Errorf("credential: pkce state does not belong to requesting user")
	}
	_ = m.cache.Delete(ctx, cache.PKCEStateKey(state))

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {ep.RedirectURI},
		"client_id":     {ep.ClientID},
		"code_verifier": {sess.CodeVerifier},
	}
	if ep.ClientSecret != "" {
		form.Set("client_secret", ep.ClientSecret)
	}

	tok, err := postForm(ctx, m.httpClient, ep.TokenURL, form)
	if err != nil {
		return nil, "", err
	}
	return tok, accounts.Provider(sess.Provider), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func postForm(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credential: token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credential: token exchange failed: status %d: %s", resp.StatusCode, string(body))
	}
	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("credential: decode token response: %w", err)
	}
	return &tok, nil
}

func randomURLSafe(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func codeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
