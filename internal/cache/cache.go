// Package cache defines the KV/TTL contract the gateway core uses for PKCE
// state, device-code sessions, round-robin cursors, cooldown entries, the
// model catalog, and the short-lived plugin-key cache. No multi-key
// transactions are required; every write carries an explicit TTL and no
// key is assumed to persist.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Get/GetJSON when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache is the contract the core depends on. Concrete backends (Redis,
// in-process map) satisfy it identically so the selector, credential
// lifecycle, and routing facade never know which one is wired in.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// SetIfAbsent atomically sets key only if it does not already exist,
	// reporting whether the set happened. Used for the PKCE-state lock,
	// the per-account refresh-dedup lock, and round-robin cursor seeding.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Close() error
}

// GetJSON fetches key and unmarshals it into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON marshals value and stores it under key with the given ttl.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// Key builders — centralized so routing-state key shapes in spec.md §3
// are constructed identically everywhere they're used.

func PKCEStateKey(state string) string { return "pkce_state:" + state }

func DeviceCodeKey(state string) string { return "device_code:" + state }

func RoundRobinKey(user, model string) string { return "round_robin:" + user + ":" + model }

func CooldownKey(accountID, project, model string) string {
	return "cooldown:" + accountID + ":" + project + ":" + model
}

func ModelsCacheKey(user string) string { return "models_cache:" + user }

func PluginKeyKey(user string) string { return "plugin_key:" + user }

func LastUsedThrottleKey(accountID string) string { return "last_used_throttle:" + accountID }

func RefreshLockKey(accountID string) string { return "refresh_lock:" + accountID }
