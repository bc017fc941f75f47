package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gwmux/internal/accounts"
	"gwmux/internal/cache"
)

const deviceCodeSessionTTL = 15 * time.Minute

// DeviceFlowEndpoints is the three-call sequence spec.md §4.4 describes
// for credential-providers that require device-code auth (Kiro/AWS,
// optionally Qwen): register client, request device authorization, poll
// for the token.
type DeviceFlowEndpoints struct {
	RegisterClientURL string
	AuthorizeURL      string
	TokenURL          string
	Scopes            []string
}

type deviceCodeSession struct {
	Provider     string    `json:"provider"`
	UserID       string    `json:"user_id"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	DeviceCode   string    `json:"device_code"`
	IntervalSec  int       `json:"interval_sec"`
	NextPollAt   time.Time `json:"next_poll_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// DevicePollStatus is the client-facing outcome of one poll call.
type DevicePollStatus string

const (
	DevicePending  DevicePollStatus = "pending"
	DeviceSlowDown DevicePollStatus = "slow_down"
	DeviceSuccess  DevicePollStatus = "success"
	DeviceExpired  DevicePollStatus = "expired"
)

// DevicePollResult is returned to the polling client. It never carries
// access or refresh tokens (spec.md §4.4: "The server never returns
// access tokens or refresh tokens to the caller of the device-code
// endpoints").
type DevicePollResult struct {
	Status       DevicePollStatus
	RetryAfterMS int64
	Account      *accounts.Account
}

type clientRegistration struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type deviceAuthorizationResponse struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int    `json:"expiresIn"`
	Interval                int    `json:"interval"`
}

// StartDeviceFlow registers a client, requests a device authorization,
// and persists the session in the cache under device_code:{state}.
func (m *Manager) StartDeviceFlow(ctx context.Context, ep DeviceFlowEndpoints, provider accounts.Provider, userID, state string) (userCode, verificationURI string, err error) {
	reg, err := m.registerDeviceClient(ctx, ep.RegisterClientURL)
	if err != nil {
		return "", "", fmt.Errorf("credential: register device client: %w", err)
	}

	auth, err := m.requestDeviceAuthorization(ctx, ep.AuthorizeURL, reg, ep.Scopes)
	if err != nil {
		return "", "", fmt.Errorf("credential: request device authorization: %w", err)
	}

	interval := auth.Interval
	if interval <= 0 {
		interval = 5
	}
	now := time.Now()
	sess := deviceCodeSession{
		Provider:     string(provider),
		UserID:       userID,
		ClientID:     reg.ClientID,
		ClientSecret: reg.ClientSecret,
		DeviceCode:   auth.DeviceCode,
		IntervalSec:  interval,
		NextPollAt:   now.Add(time.Duration(interval) * time.Second),
		ExpiresAt:    now.Add(time.Duration(auth.ExpiresIn) * time.Second),
	}
	if err := cache.SetJSON(ctx, m.cache, cache.DeviceCodeKey(state), sess, deviceCodeSessionTTL); err != nil {
		return "", "", fmt.Errorf("credential: persist device session: %w", err)
	}

	verificationURI = auth.VerificationURIComplete
	if verificationURI == "" {
		verificationURI = auth.VerificationURI
	}
	return auth.UserCode, verificationURI, nil
}

func (m *Manager) registerDeviceClient(ctx context.Context, registerURL string) (*clientRegistration, error) {
	body := strings.NewReader(`{"clientName":"gwmux","clientType":"public"}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, registerURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	var reg clientRegistration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (m *Manager) requestDeviceAuthorization(ctx context.Context, authorizeURL string, reg *clientRegistration, scopes []string) (*deviceAuthorizationResponse, error) {
	payload := map[string]interface{}{
		"clientId":     reg.ClientID,
		"clientSecret": reg.ClientSecret,
	}
	if len(scopes) > 0 {
		payload["scopes"] = scopes
	}
	raw, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authorizeURL, strings.NewReader(string(raw)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	var out deviceAuthorizationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollDeviceFlow implements the single polling endpoint: pending with a
// server-computed retry-after, slow_down with a widened interval,
// success converting tokens into an Account and scrubbing the session,
// or expired once the session TTL has lapsed.
func (m *Manager) PollDeviceFlow(ctx context.Context, ep DeviceFlowEndpoints, userID, state string) (*DevicePollResult, error) {
	var sess deviceCodeSession
	if err := cache.GetJSON(ctx, m.cache, cache.DeviceCodeKey(state), &sess); err != nil {
		return &DevicePollResult{Status: DeviceExpired}, nil
	}
	if sess.UserID != userID {
		return nil, fmt.Errorf("credential: device session does not belong to requesting user")
	}
	now := time.Now()
	if now.After(sess.ExpiresAt) {
		_ = m.cache.Delete(ctx, cache.DeviceCodeKey(state))
		return &DevicePollResult{Status: DeviceExpired}, nil
	}
	if now.Before(sess.NextPollAt) {
		return &DevicePollResult{Status: DevicePending, RetryAfterMS: sess.NextPollAt.Sub(now).Milliseconds()}, nil
	}

	form := url.Values{
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {sess.DeviceCode},
		"client_id":   {sess.ClientID},
	}
	if sess.ClientSecret != "" {
		form.Set("client_secret", sess.ClientSecret)
	}
	tok, err := postForm(ctx, m.httpClient, ep.TokenURL, form)
	if err == nil {
		cj := &JSON{
			Type:         "oauth",
			RefreshToken: tok.RefreshToken,
			AccessToken:  tok.AccessToken,
			IDToken:      tok.IDToken,
		}
		if tok.ExpiresIn > 0 {
			exp := now.Add(time.Duration(tok.ExpiresIn) * time.Second)
			cj.ExpiresAt = &exp
		}
		if cj.IDToken != "" {
			if claims, cerr := DecodeIDTokenClaims(cj.IDToken); cerr == nil {
				cj.Email = claims.Email
				cj.AccountID = claims.Subject
			}
		}
		acct, uerr := m.Upsert(ctx, accounts.Provider(sess.Provider), userID, cj, "")
		if uerr != nil {
			return nil, uerr
		}
		_ = m.cache.Delete(ctx, cache.DeviceCodeKey(state))
		return &DevicePollResult{Status: DeviceSuccess, Account: acct}, nil
	}

	if strings.Contains(err.Error(), "slow_down") {
		sess.IntervalSec += 5
		sess.NextPollAt = now.Add(time.Duration(sess.IntervalSec) * time.Second)
		_ = cache.SetJSON(ctx, m.cache, cache.DeviceCodeKey(state), sess, time.Until(sess.ExpiresAt))
		return &DevicePollResult{Status: DeviceSlowDown, RetryAfterMS: int64(sess.IntervalSec) * 1000}, nil
	}
	if strings.Contains(err.Error(), "authorization_pending") {
		sess.NextPollAt = now.Add(time.Duration(sess.IntervalSec) * time.Second)
		_ = cache.SetJSON(ctx, m.cache, cache.DeviceCodeKey(state), sess, time.Until(sess.ExpiresAt))
		return &DevicePollResult{Status: DevicePending, RetryAfterMS: int64(sess.IntervalSec) * 1000}, nil
	}
	return nil, err
}
