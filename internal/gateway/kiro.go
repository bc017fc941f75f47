package gateway

import (
	"gwmux/internal/config"
	"gwmux/internal/upstream/kiro"
)

// kiroCheckPermission forwards to internal/upstream/kiro.CheckPermission;
// kept as a thin indirection so dispatch.go and tests don't import the
// kiro package directly just for the permission gate.
func kiroCheckPermission(cfg *config.Config, beta bool, trustLevel int) (bool, string) {
	return kiro.CheckPermission(cfg, beta, trustLevel)
}
