// Package accounts implements the per-provider account repository (C3):
// one table per provider sharing a common attribute skeleton, plus the
// freeze/effective-status derivation rules from spec.md §3 and §4.5.
package accounts

import "time"

// Provider identifies which upstream credential pool an Account belongs to.
// This is the same tag spec.md calls "config-type".
type Provider string

const (
	ProviderCodex      Provider = "codex"       // ChatGPT/Codex
	ProviderGeminiCLI  Provider = "gemini-cli"  // Google GeminiCLI
	ProviderKiro       Provider = "kiro"        // AWS CodeWhisperer/Kiro
	ProviderAntigravity Provider = "antigravity"
	ProviderQwen       Provider = "qwen"
	ProviderZAITTS     Provider = "zai-tts"
	ProviderZAIImage   Provider = "zai-image"
)

// KnownProviders lists every config-type the gateway understands, in a
// stable order used for default-channel validation and iteration.
var KnownProviders = []Provider{
	ProviderCodex, ProviderGeminiCLI, ProviderKiro, ProviderAntigravity, ProviderQwen, ProviderZAITTS, ProviderZAIImage,
}

// RequiresProjectScope reports whether candidates for this provider must
// be expanded per-project (spec.md §4.5 candidate build; true for
// GeminiCLI today).
func (p Provider) RequiresProjectScope() bool {
	return p == ProviderGeminiCLI
}

// Valid reports whether p is one of KnownProviders.
func (p Provider) Valid() bool {
	for _, known := range KnownProviders {
		if known == p {
			return true
		}
	}
	return false
}

// FreezeReason names why an account's effective_status is false due to a
// persisted quota exhaustion, independent of the short-horizon cooldown
// map the selector keeps in cache.
type FreezeReason string

const (
	FreezeNone         FreezeReason = ""
	FreezeWeeklyLimit  FreezeReason = "weekly_limit_exceeded"
	Freeze5HourLimit   FreezeReason = "5h_limit_exceeded"
	FreezeUnauthorized FreezeReason = "unauthorized"
	FreezeForbidden    FreezeReason = "forbidden"
	FreezePaymentRequired FreezeReason = "payment_required"
)

// Account is the shared attribute skeleton spec.md §3 describes for every
// provider table. EncryptedCredentials is opaque ciphertext produced by
// internal/crypto; its plaintext is a credentialJSON (see credential
// package) containing at least refresh_token.
type Account struct {
	ID         int64
	UserID     string
	Provider   Provider
	ExternalID string // opaque id the provider assigns (account_id, email, etc.)
	Name       string

	EncryptedCredentials string

	Status          string // "enabled" | "disabled"
	TokenExpiresAt  *time.Time
	LastRefreshAt   *time.Time
	LastUsedAt      *time.Time

	Limit5hUsedPercent  *float64
	Limit5hResetAt      *time.Time
	LimitWeekUsedPercent *float64
	LimitWeekResetAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFrozen derives is_frozen per spec.md §3/§8 invariant 7: true iff any
// used_percent >= 100 AND the matching reset_at is in the future.
func (a *Account) IsFrozen(now time.Time) bool {
	if a == nil {
		return false
	}
	if a.LimitWeekUsedPercent != nil && *a.LimitWeekUsedPercent >= 100 &&
		a.LimitWeekResetAt != nil && a.LimitWeekResetAt.After(now) {
		return true
	}
	if a.Limit5hUsedPercent != nil && *a.Limit5hUsedPercent >= 100 &&
		a.Limit5hResetAt != nil && a.Limit5hResetAt.After(now) {
		return true
	}
	return false
}

// FreezeReason returns which bucket caused the freeze, with week-limit
// taking precedence over 5h-limit per spec.md §4.5.
func (a *Account) FreezeReason(now time.Time) FreezeReason {
	if a == nil {
		return FreezeNone
	}
	if a.LimitWeekUsedPercent != nil && *a.LimitWeekUsedPercent >= 100 &&
		a.LimitWeekResetAt != nil && a.LimitWeekResetAt.After(now) {
		return FreezeWeeklyLimit
	}
	if a.Limit5hUsedPercent != nil && *a.Limit5hUsedPercent >= 100 &&
		a.Limit5hResetAt != nil && a.Limit5hResetAt.After(now) {
		return Freeze5HourLimit
	}
	return FreezeNone
}

// FreezeResetAt returns the timestamp at which the active freeze (if any)
// clears, used to populate 429 Retry-After / earliest-recovery messages.
func (a *Account) FreezeResetAt(now time.Time) (time.Time, bool) {
	switch a.FreezeReason(now) {
	case FreezeWeeklyLimit:
		return *a.LimitWeekResetAt, true
	case Freeze5HourLimit:
		return *a.Limit5hResetAt, true
	default:
		return time.Time{}, false
	}
}

// EffectiveStatus combines enabled + not-frozen per spec.md glossary.
func (a *Account) EffectiveStatus(now time.Time) bool {
	if a == nil {
		return false
	}
	return a.Status == "enabled" && !a.IsFrozen(now)
}

// ProjectIDs splits a comma-separated project-id list, excluding the
// literal "ALL" sentinel and empty entries, per spec.md §4.5 candidate
// build for project-scoped providers.
func ProjectIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	out := make([]string, 0, 2)
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			part := trimSpace(raw[start:i])
			if part != "" && part != "ALL" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }
