// Package selector implements the account-selection and cooldown engine
// (C5): candidate enumeration, cache-backed round-robin, in-process
// cooldown tracking with exponential backoff, and the failure-signal to
// action table that drives refresh/freeze/skip decisions.
package selector

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"gwmux/internal/accounts"
	"gwmux/internal/cache"
)

const (
	cooldownBase = time.Second
	cooldownMax  = 30 * time.Minute
)

// Candidate is one (account, project) pair eligible for selection.
// Project is empty for providers that don't require project scoping.
type Candidate struct {
	Account *accounts.Account
	Project string
}

func (c Candidate) key(model string) string {
	return cache.CooldownKey(fmt.Sprintf("%d", c.Account.ID), c.Project, model)
}

// ErrNoCandidates is returned when a user has no enabled accounts, or
// none expose the project scope their provider requires.
type ErrNoCandidates struct {
	Reason string
}

func (e *ErrNoCandidates) Error() string { return "selector: " + e.Reason }

// ErrExhausted is returned when every candidate is currently cooling
// down; EarliestAt names when the first one recovers (spec.md §4.5).
type ErrExhausted struct {
	EarliestAt time.Time
}

func (e *ErrExhausted) Error() string {
	return "selector: all candidates cooling down until " + e.EarliestAt.UTC().Format(time.RFC3339)
}

type cooldownEntry struct {
	until        time.Time
	backoffLevel int
}

// Selector picks a (account, project) candidate per (user, model) and
// owns the cooldown map. One Selector is shared across all requests for
// a gateway process; concurrent callers for the same (user, model) are
// serialized only at the cursor-advance step.
type Selector struct {
	repo  accounts.Repository
	cache cache.Cache

	mu       sync.Mutex
	cooldown map[string]cooldownEntry
}

func New(repo accounts.Repository, c cache.Cache) *Selector {
	return &Selector{repo: repo, cache: c, cooldown: make(map[string]cooldownEntry)}
}

// BuildCandidates enumerates enabled accounts for (user, provider),
// expanding project-scoped providers into one candidate per non-empty,
// non-"ALL" project id.
func (s *Selector) BuildCandidates(ctx context.Context, provider accounts.Provider, userID string) ([]Candidate, error) {
	enabled, err := s.repo.ListEnabledByUser(ctx, provider, userID)
	if err != nil {
		return nil, err
	}
	if len(enabled) == 0 {
		return nil, &ErrNoCandidates{Reason: "no enabled accounts for user"}
	}

	now := time.Now()
	var out []Candidate
	missingProject := true
	for _, a := range enabled {
		if !a.EffectiveStatus(now) {
			continue
		}
		if !provider.RequiresProjectScope() {
			out = append(out, Candidate{Account: a})
			missingProject = false
			continue
		}
		projects := accounts.ProjectIDs(a.ExternalID)
		for _, p := range projects {
			out = append(out, Candidate{Account: a, Project: p})
			missingProject = false
		}
	}
	if len(out) == 0 {
		if missingProject && provider.RequiresProjectScope() {
			return nil, &ErrNoCandidates{Reason: "enabled accounts are missing required project_id"}
		}
		return nil, &ErrNoCandidates{Reason: "no effective (non-frozen) accounts for user"}
	}
	return out, nil
}

// available filters candidates down to those not currently cooling down.
func (s *Selector) available(candidates []Candidate, model string) []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if ce, ok := s.cooldown[c.key(model)]; ok && now.Before(ce.until) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Pick advances the (user, model) round-robin cursor in the cache and
// indexes into the available subset of candidates.
func (s *Selector) Pick(ctx context.Context, userID, model string, candidates []Candidate) (Candidate, error) {
	avail := s.available(candidates, model)
	if len(avail) == 0 {
		return Candidate{}, &ErrExhausted{EarliestAt: s.earliestRecovery(candidates, model)}
	}

	cursor, err := s.advanceCursor(ctx, userID, model)
	if err != nil {
		return Candidate{}, err
	}
	idx := int(cursor % int64(len(avail)))
	if idx < 0 {
		idx += len(avail)
	}
	return avail[idx], nil
}

func (s *Selector) advanceCursor(ctx context.Context, userID, model string) (int64, error) {
	key := cache.RoundRobinKey(userID, model)
	raw, err := s.cache.Get(ctx, key)
	var cursor int64
	if err == nil {
		fmt.Sscanf(string(raw), "%d", &cursor)
	}
	cursor++
	if err := s.cache.Set(ctx, key, []byte(fmt.Sprintf("%d", cursor)), 24*time.Hour); err != nil {
		return 0, fmt.Errorf("selector: advance cursor: %w", err)
	}
	return cursor, nil
}

func (s *Selector) earliestRecovery(candidates []Candidate, model string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	var earliest time.Time
	for _, c := range candidates {
		ce, ok := s.cooldown[c.key(model)]
		if !ok {
			continue
		}
		if earliest.IsZero() || ce.until.Before(earliest) {
			earliest = ce.until
		}
	}
	return earliest
}

// Signal is the classified outcome of an upstream call, independent of
// HTTP status — produced by a provider's ClassifyFailure (C8).
type Signal struct {
	Kind       SignalKind
	RetryAfter time.Duration // set for RateLimit when the provider discloses it
	FreezeReason accounts.FreezeReason
	FreezeUntil  time.Time
}

type SignalKind int

const (
	SignalSuccess SignalKind = iota
	SignalTransient
	SignalRateLimit
	SignalUnauthorized
	SignalFreeze
	SignalFatal
)

// Observe applies the failure-to-action table from spec.md §4.5 for one
// candidate on one model, mutating cooldown state and (for freeze
// signals) persisting the Account's limit fields.
func (s *Selector) Observe(ctx context.Context, c Candidate, model string, sig Signal) error {
	key := c.key(model)
	switch sig.Kind {
	case SignalSuccess:
		s.mu.Lock()
		delete(s.cooldown, key)
		s.mu.Unlock()
		return s.touchLastUsed(ctx, c.Account)

	case SignalRateLimit:
		s.mu.Lock()
		ce := s.cooldown[key]
		ce.backoffLevel++
		until := sig.RetryAfter
		if until == 0 {
			delay := cooldownBase << uint(ce.backoffLevel-1)
			if delay > cooldownMax {
				delay = cooldownMax
			}
			ce.until = time.Now().Add(delay)
		} else {
			ce.until = time.Now().Add(until)
		}
		s.cooldown[key] = ce
		s.mu.Unlock()
		if !sig.FreezeUntil.IsZero() {
			return s.freeze(ctx, c.Account, sig.FreezeReason, sig.FreezeUntil)
		}
		return nil

	case SignalFreeze, SignalUnauthorized:
		reason := sig.FreezeReason
		if reason == "" {
			reason = accounts.FreezeUnauthorized
		}
		if sig.FreezeUntil.IsZero() {
			// no known reset window: freeze indefinitely via a far horizon,
			// the operator clears it with a manual status flip once resolved.
			sig.FreezeUntil = time.Now().Add(24 * time.Hour)
		}
		return s.freeze(ctx, c.Account, reason, sig.FreezeUntil)

	case SignalTransient, SignalFatal:
		// no cooldown write; caller moves to the next candidate.
		return nil
	}
	return nil
}

func (s *Selector) touchLastUsed(ctx context.Context, a *accounts.Account) error {
	throttleKey := cache.LastUsedThrottleKey(fmt.Sprintf("%d", a.ID))
	ok, err := s.cache.SetIfAbsent(ctx, throttleKey, []byte("1"), 60*time.Second)
	if err != nil || !ok {
		return nil
	}
	return s.repo.UpdateLastUsed(ctx, a.Provider, a.ID, time.Now())
}

func (s *Selector) freeze(ctx context.Context, a *accounts.Account, reason accounts.FreezeReason, until time.Time) error {
	full := 100.0
	var limit5h, limitWeek *float64
	var reset5h, resetWeek *time.Time
	switch reason {
	case accounts.FreezeWeeklyLimit:
		limitWeek, resetWeek = &full, &until
	default:
		limit5h, reset5h = &full, &until
	}
	log.WithFields(log.Fields{"account": a.ID, "provider": a.Provider, "reason": reason}).Warn("selector: freezing account")
	return s.repo.UpdateLimits(ctx, a.Provider, a.ID, limit5h, reset5h, limitWeek, resetWeek)
}
