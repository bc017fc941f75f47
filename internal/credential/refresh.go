package credential

import (
	"context"
	"fmt"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"gwmux/internal/accounts"
)

const refreshAheadWindow = 60 * time.Second

// Refresher is the per-provider refresh(refresh_token) contract
// (spec.md §4.4). Implementations live beside each provider's upstream
// dispatcher (C8) since the token endpoint is provider-specific.
type Refresher interface {
	Refresh(ctx context.Context, cj *JSON) (*JSON, error)
}

// HTTPRefresher is a Refresher for providers using a plain OAuth2
// refresh_token grant against a fixed token endpoint.
type HTTPRefresher struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Manager      *Manager
}

func (r *HTTPRefresher) Refresh(ctx context.Context, cj *JSON) (*JSON, error) {
	if cj.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh_token")
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cj.RefreshToken},
		"client_id":     {r.ClientID},
	}
	if r.ClientSecret != "" {
		form.Set("client_secret", r.ClientSecret)
	}
	tok, err := postForm(ctx, r.Manager.httpClient, r.TokenURL, form)
	if err != nil {
		return nil, err
	}
	out := *cj
	out.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		out.RefreshToken = tok.RefreshToken
	}
	if tok.IDToken != "" {
		out.IDToken = tok.IDToken
	}
	if tok.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
		out.ExpiresAt = &exp
	}
	return &out, nil
}

// ShouldRefresh reports whether the account's token is within 60s of
// expiry, has no known expiry, or is being refreshed at the caller's
// explicit request (spec.md §4.4).
func ShouldRefresh(cj *JSON, forced bool) bool {
	if forced {
		return true
	}
	return cj.ExpiresWithin(refreshAheadWindow, time.Now())
}

// Refresh runs r against the account's current credentials and writes
// the result back atomically, de-duplicating concurrent refreshes for
// the same account via an in-process singleflight coordinator (spec.md
// §4.4: "either a set_if_absent cache lock ... or an in-process
// per-account mutex; either is acceptable").
func (m *Manager) Refresh(ctx context.Context, a *accounts.Account, r Refresher) (*JSON, error) {
	key := fmt.Sprintf("%s:%d", a.Provider, a.ID)
	var result *JSON
	err := m.coord.Do(ctx, key, func(ctx context.Context) error {
		cj, err := m.Load(a)
		if err != nil {
			return err
		}
		refreshed, err := r.Refresh(ctx, cj)
		if err != nil {
			return fmt.Errorf("credential: refresh account %d: %w", a.ID, err)
		}
		if err := m.persist(ctx, a, refreshed); err != nil {
			return err
		}
		result = refreshed
		log.WithFields(log.Fields{"provider": a.Provider, "account": a.ID}).Info("credential: token refreshed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
