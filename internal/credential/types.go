// Package credential implements the OAuth/device-code lifecycle (C4):
// PKCE exchange, device-code polling, refresh-token rotation, JWT claim
// extraction without signature verification, and credential-JSON
// normalization to the in-repository snake_case shape.
package credential

import "time"

// JSON is the normalized logical shape every provider's credentials blob
// takes once it crosses the ingress boundary (spec.md §4.4). The
// in-repository form is always snake_case; empty strings never appear
// here (they are dropped by Normalize before this struct is populated).
type JSON struct {
	Type         string     `json:"type,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	IDToken      string     `json:"id_token,omitempty"`
	ClientID     string     `json:"client_id,omitempty"`
	ClientSecret string     `json:"client_secret,omitempty"`
	Region       string     `json:"region,omitempty"`
	AuthRegion   string     `json:"auth_region,omitempty"`
	APIRegion    string     `json:"api_region,omitempty"`
	ProjectID    string     `json:"project_id,omitempty"`
	AccountID    string     `json:"account_id,omitempty"`
	Email        string     `json:"email,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ExpiresWithin reports whether the token is within d of expiry, or has
// no known expiry at all (treated as due for refresh).
func (j *JSON) ExpiresWithin(d time.Duration, now time.Time) bool {
	if j.ExpiresAt == nil {
		return true
	}
	return !j.ExpiresAt.After(now.Add(d))
}

// aliasKeys maps every accepted ingress spelling (camelCase, legacy
// names) to the canonical snake_case field name. Unknown keys pass
// through untouched so provider-specific extras survive a round trip.
var aliasKeys = map[string]string{
	"refreshToken": "refresh_token",
	"accessToken":  "access_token",
	"idToken":      "id_token",
	"clientId":     "client_id",
	"clientSecret": "client_secret",
	"authRegion":   "auth_region",
	"apiRegion":    "api_region",
	"projectId":    "project_id",
	"accountId":    "account_id",
	"expiresAt":    "expires_at",
}

// Normalize rewrites raw ingress JSON keys to their canonical snake_case
// form and drops empty-string values (spec.md §4.4: "Empty strings are
// normalized to null before storage").
func Normalize(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		key := k
		if canon, ok := aliasKeys[k]; ok {
			key = canon
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[key] = v
	}
	return out
}
