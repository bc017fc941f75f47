package gateway

import (
	"net/http"
	"time"

	apperrors "gwmux/internal/errors"
	"gwmux/internal/selector"
)

// apiError is the gateway's internal error carrier; handlers.go serializes
// it through apperrors.APIError.ToJSON in the destination wire format.
type apiError = apperrors.APIError

func errUnauthorized(msg string) *apiError {
	return apperrors.New(http.StatusUnauthorized, "invalid_api_key", "authentication_error", msg)
}

func errForbidden(msg string) *apiError {
	return apperrors.New(http.StatusForbidden, "permission_denied", "permission_error", msg)
}

func errBadRequest(msg string) *apiError {
	return apperrors.New(http.StatusBadRequest, "invalid_request_error", "invalid_request_error", msg)
}

func errNotFound(msg string) *apiError {
	return apperrors.New(http.StatusNotFound, "not_found", "invalid_request_error", msg)
}

func errInternal(msg string) *apiError {
	return apperrors.New(http.StatusInternalServerError, "internal_error", "server_error", msg)
}

// errFromSelector maps the selector's exhaustion/no-candidate failures onto
// spec.md §7's "every candidate unavailable" behavior: ErrNoCandidates means
// the user has nothing configured for this config_type (400), ErrExhausted
// means everything is cooling down (429 with the earliest recovery time).
func errFromSelector(err error) *apiError {
	switch e := err.(type) {
	case *selector.ErrNoCandidates:
		return errBadRequest(e.Reason)
	case *selector.ErrExhausted:
		ae := apperrors.New(http.StatusTooManyRequests, "rate_limit_exceeded", "rate_limit_error", "all accounts for this provider are cooling down")
		if d := time.Until(e.EarliestAt); d > 0 {
			ae.RetryAfter = int(d.Seconds()) + 1
		}
		return ae
	default:
		return errInternal(err.Error())
	}
}
