// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// MoveLog has no template engine or caches to warm; the hook stays for
// lifecycle symmetry.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("movelog starting",
		zap.String("env", coreCfg.Env),
		zap.String("audit_log", appCfg.AuditLog))
	return nil
}
