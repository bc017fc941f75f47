package kiro

import (
	"testing"

	"gwmux/internal/config"
)

func TestCheckPermission(t *testing.T) {
	cfg := &config.Config{}
	cfg.ProviderDomains.KiroRequireBeta = true
	cfg.ProviderDomains.KiroMinTrustLevel = 3

	if ok, _ := CheckPermission(cfg, true, 0); !ok {
		t.Fatalf("expected beta flag to grant access")
	}
	if ok, _ := CheckPermission(cfg, false, 3); !ok {
		t.Fatalf("expected trust level >= min to grant access")
	}
	if ok, reason := CheckPermission(cfg, false, 2); ok || reason == "" {
		t.Fatalf("expected denial with a reason, got ok=%v reason=%q", ok, reason)
	}
}
