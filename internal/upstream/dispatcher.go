package upstream

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FailureKind classifies an upstream HTTP failure into the action the
// selector (internal/selector) should take.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTransient
	FailureRateLimit
	FailureFreeze
	FailureUnauthorized
	FailureFatal
)

// Classification is the pure-function result of inspecting an upstream
// response's status/headers/body, independent of any particular provider's
// wire format.
type Classification struct {
	Kind       FailureKind
	RetryAfter time.Duration // set for FailureRateLimit when disclosed
	FreezeFor  time.Duration // set for FailureFreeze when disclosed; zero means "no disclosed reset"
}

// ClassifyFailure maps a provider's raw HTTP response into a Classification.
// It is pure: same (status, headers, body) always yields the same result,
// so provider dispatchers can share one implementation instead of each
// re-deriving the selector action table from spec.md §4.5.
func ClassifyFailure(status int, headers http.Header, body []byte) Classification {
	switch {
	case status == http.StatusTooManyRequests:
		return Classification{Kind: FailureRateLimit, RetryAfter: retryAfter(headers)}
	case status == http.StatusUnauthorized:
		return Classification{Kind: FailureUnauthorized}
	case status == http.StatusForbidden || status == http.StatusPaymentRequired:
		return Classification{Kind: FailureFreeze, FreezeFor: retryAfter(headers)}
	case status >= 500 && status <= 599:
		return Classification{Kind: FailureTransient}
	case status == http.StatusRequestTimeout || status == 0:
		return Classification{Kind: FailureTransient}
	case status >= 400 && status <= 499:
		return Classification{Kind: FailureFatal}
	default:
		return Classification{Kind: FailureNone}
	}
}

// retryAfter parses a standard Retry-After header (seconds or HTTP-date);
// returns 0 if absent or unparseable, signaling "no disclosed reset time".
func retryAfter(headers http.Header) time.Duration {
	if headers == nil {
		return 0
	}
	raw := strings.TrimSpace(headers.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
