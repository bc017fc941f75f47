package kiro

import (
	"strconv"

	"gwmux/internal/config"
)

// CheckPermission enforces spec.md's Kiro gate: a request needs either the
// "beta" flag or a trust level at or above the configured minimum. The
// gateway (internal/gateway) calls this before dispatching to Kiro and
// turns a false result into a 403 with a clear reason.
func CheckPermission(cfg *config.Config, beta bool, trustLevel int) (bool, string) {
	pd := cfg.ProviderDomains
	if pd.KiroRequireBeta && beta {
		return true, ""
	}
	if trustLevel >= pd.KiroMinTrustLevel {
		return true, ""
	}
	if pd.KiroRequireBeta {
		return false, "kiro access requires the beta flag or trust level " +
			strconv.Itoa(pd.KiroMinTrustLevel) + "+"
	}
	return false, "kiro access requires trust level " + strconv.Itoa(pd.KiroMinTrustLevel) + "+"
}
