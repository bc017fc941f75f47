package gateway

import (
	"context"

	"gwmux/internal/config"
	"gwmux/internal/credential"
	"gwmux/internal/oauth"
)

// geminiCLIRefresher adapts internal/oauth.Manager.RefreshToken to the
// credential.Refresher contract. This is the only config_type with a
// refresher wired up today — see DESIGN.md for why Codex/Kiro/
// Antigravity/Qwen are left unwired (their token endpoints weren't
// present anywhere in the retrieved reference material).
type geminiCLIRefresher struct {
	oauth *oauth.Manager
}

// NewGeminiCLIRefresher builds the gemini-cli credential.Refresher from
// the gateway's configured OAuth client.
func NewGeminiCLIRefresher(cfg *config.Config) credential.Refresher {
	return &geminiCLIRefresher{oauth: oauth.NewManager(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)}
}

func (r *geminiCLIRefresher) Refresh(ctx context.Context, cj *credential.JSON) (*credential.JSON, error) {
	creds := &oauth.Credentials{
		ClientID:     cj.ClientID,
		ClientSecret: cj.ClientSecret,
		AccessToken:  cj.AccessToken,
		RefreshToken: cj.RefreshToken,
		ProjectID:    cj.ProjectID,
	}
	if err := r.oauth.RefreshToken(ctx, creds); err != nil {
		return nil, err
	}
	out := *cj
	out.AccessToken = creds.AccessToken
	if creds.RefreshToken != "" {
		out.RefreshToken = creds.RefreshToken
	}
	if !creds.ExpiresAt.IsZero() {
		exp := creds.ExpiresAt
		out.ExpiresAt = &exp
	}
	return &out, nil
}
