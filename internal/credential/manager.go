package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"gwmux/internal/accounts"
	"gwmux/internal/cache"
	"gwmux/internal/crypto"
)

// Manager owns the encrypt/decrypt boundary around accounts.Repository
// and coordinates PKCE, device-code, and refresh flows across providers.
type Manager struct {
	repo       accounts.Repository
	cache      cache.Cache
	box        *crypto.SecretBox
	httpClient *http.Client
	coord      *InflightCoordinator
}

func NewManager(repo accounts.Repository, c cache.Cache, box *crypto.SecretBox) *Manager {
	return &Manager{
		repo:       repo,
		cache:      c,
		box:        box,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		coord:      NewInflightCoordinator(),
	}
}

// WithHTTPClient overrides the outbound HTTP client (proxy wiring, tests).
func (m *Manager) WithHTTPClient(client *http.Client) *Manager {
	if client != nil {
		m.httpClient = client
	}
	return m
}

// Load decrypts and unmarshals an account's credentials blob.
func (m *Manager) Load(a *accounts.Account) (*JSON, error) {
	if a.EncryptedCredentials == "" {
		return nil, fmt.Errorf("credential: account %d has no credentials blob", a.ID)
	}
	plain, err := m.box.Decrypt(a.EncryptedCredentials)
	if err != nil {
		return nil, fmt.Errorf("credentials corrupted, please re-import: %w", err)
	}
	var cj JSON
	if err := json.Unmarshal(plain, &cj); err != nil {
		return nil, fmt.Errorf("credentials corrupted, please re-import: %w", err)
	}
	return &cj, nil
}

// persist encrypts cj and writes it back atomically along with the
// token-expiry and last-refresh timestamps (spec.md invariant ii: the
// timestamp never moves backward across successful refreshes).
func (m *Manager) persist(ctx context.Context, a *accounts.Account, cj *JSON) error {
	raw, err := json.Marshal(cj)
	if err != nil {
		return err
	}
	ciphertext, err := m.box.Encrypt(raw)
	if err != nil {
		return fmt.Errorf("credential: encrypt: %w", err)
	}
	return m.repo.UpdateCredentialsAndProfile(ctx, a.Provider, a.ID, ciphertext, cj.ExpiresAt, "")
}

// Upsert implements the PKCE-callback dedup rule (spec.md Scenario F):
// one account per (user, provider, external id), keyed by provider
// account id when present, falling back to email.
func (m *Manager) Upsert(ctx context.Context, provider accounts.Provider, userID string, cj *JSON, name string) (*accounts.Account, error) {
	externalID := cj.AccountID
	if externalID == "" {
		externalID = cj.Email
	}
	if externalID == "" {
		return nil, fmt.Errorf("credential: provider did not expose an account id or email")
	}

	raw, err := json.Marshal(cj)
	if err != nil {
		return nil, err
	}
	ciphertext, err := m.box.Encrypt(raw)
	if err != nil {
		return nil, fmt.Errorf("credential: encrypt: %w", err)
	}

	existing, err := m.repo.GetByUserAndExternalID(ctx, provider, userID, externalID)
	if err == nil {
		if err := m.repo.UpdateCredentialsAndProfile(ctx, provider, existing.ID, ciphertext, cj.ExpiresAt, name); err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"provider": provider, "account": existing.ID}).Info("credential: updated existing account on callback")
		return m.repo.GetByIDAndUser(ctx, provider, existing.ID, userID)
	}

	created, err := m.repo.Create(ctx, &accounts.Account{
		UserID:               userID,
		Provider:             provider,
		ExternalID:           externalID,
		Name:                 name,
		EncryptedCredentials: ciphertext,
		Status:               "enabled",
		TokenExpiresAt:       cj.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"provider": provider, "account": created.ID}).Info("credential: created account from callback")
	return created, nil
}
