package accounts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository, used in tests and as the
// zero-configuration default before an operator wires a real database.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	byTable map[Provider]map[int64]*Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byTable: make(map[Provider]map[int64]*Account)}
}

func (m *MemoryRepository) table(p Provider) map[int64]*Account {
	t, ok := m.byTable[p]
	if !ok {
		t = make(map[int64]*Account)
		m.byTable[p] = t
	}
	return t
}

func cloneAccount(a *Account) *Account {
	cp := *a
	if a.TokenExpiresAt != nil {
		v := *a.TokenExpiresAt
		cp.TokenExpiresAt = &v
	}
	if a.LastRefreshAt != nil {
		v := *a.LastRefreshAt
		cp.LastRefreshAt = &v
	}
	if a.LastUsedAt != nil {
		v := *a.LastUsedAt
		cp.LastUsedAt = &v
	}
	if a.Limit5hUsedPercent != nil {
		v := *a.Limit5hUsedPercent
		cp.Limit5hUsedPercent = &v
	}
	if a.Limit5hResetAt != nil {
		v := *a.Limit5hResetAt
		cp.Limit5hResetAt = &v
	}
	if a.LimitWeekUsedPercent != nil {
		v := *a.LimitWeekUsedPercent
		cp.LimitWeekUsedPercent = &v
	}
	if a.LimitWeekResetAt != nil {
		v := *a.LimitWeekResetAt
		cp.LimitWeekResetAt = &v
	}
	return &cp
}

func (m *MemoryRepository) ListByUser(_ context.Context, provider Provider, userID string) ([]*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Account
	for _, a := range m.table(provider) {
		if a.UserID == userID {
			out = append(out, cloneAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) ListEnabledByUser(ctx context.Context, provider Provider, userID string) ([]*Account, error) {
	all, err := m.ListByUser(ctx, provider, userID)
	if err != nil {
		return nil, err
	}
	var out []*Account
	for _, a := range all {
		if a.Status == "enabled" {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryRepository) GetByIDAndUser(_ context.Context, provider Provider, id int64, userID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.table(provider)[id]
	if !ok || a.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneAccount(a), nil
}

func (m *MemoryRepository) GetByUserAndExternalID(_ context.Context, provider Provider, userID, externalID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.table(provider) {
		if a.UserID == userID && a.ExternalID == externalID {
			return cloneAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) Create(_ context.Context, a *Account) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := cloneAccount(a)
	cp.ID = m.nextID
	if cp.Status == "" {
		cp.Status = "enabled"
	}
	now := time.Now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	m.table(a.Provider)[cp.ID] = cp
	return cloneAccount(cp), nil
}

func (m *MemoryRepository) UpdateCredentialsAndProfile(_ context.Context, provider Provider, id int64, encryptedCredentials string, tokenExpiresAt *time.Time, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.table(provider)[id]
	if !ok {
		return ErrNotFound
	}
	a.EncryptedCredentials = encryptedCredentials
	a.TokenExpiresAt = tokenExpiresAt
	if name != "" {
		a.Name = name
	}
	now := time.Now()
	a.LastRefreshAt = &now
	a.UpdatedAt = now
	return nil
}

func (m *MemoryRepository) UpdateLimits(_ context.Context, provider Provider, id int64, limit5h *float64, limit5hReset *time.Time, limitWeek *float64, limitWeekReset *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.table(provider)[id]
	if !ok {
		return ErrNotFound
	}
	a.Limit5hUsedPercent = limit5h
	a.Limit5hResetAt = limit5hReset
	a.LimitWeekUsedPercent = limitWeek
	a.LimitWeekResetAt = limitWeekReset
	a.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, provider Provider, id int64, userID string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.table(provider)[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	now := time.Now()
	if enabled && a.IsFrozen(now) {
		until, _ := a.FreezeResetAt(now)
		return &ErrFrozen{Until: until}
	}
	if enabled {
		a.Status = "enabled"
	} else {
		a.Status = "disabled"
	}
	a.UpdatedAt = now
	return nil
}

func (m *MemoryRepository) UpdateName(_ context.Context, provider Provider, id int64, userID string, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.table(provider)[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	a.Name = name
	a.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) UpdateLastUsed(_ context.Context, provider Provider, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.table(provider)[id]
	if !ok {
		return ErrNotFound
	}
	a.LastUsedAt = &at
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, provider Provider, id int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.table(provider)[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(m.table(provider), id)
	return nil
}
