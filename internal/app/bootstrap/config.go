// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MoveLog.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MOVELOG_MONGO_URI, MOVELOG_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "movelog", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "movelog-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "uploads_dir", Default: "./uploads", Desc: "Local directory for avatar uploads"},
	{Name: "uploads_url", Default: "/uploads", Desc: "URL prefix avatar files are served under"},

	{Name: "audit_log", Default: "all", Desc: "Audit event routing: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "seed_admin_username", Default: "admin", Desc: "Username of the seeded administrator"},
	{Name: "seed_admin_password", Default: "admin123", Desc: "Password of the seeded administrator (change immediately)"},
	{Name: "seed_admin_full_name", Default: "Administrator", Desc: "Display name of the seeded administrator"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MOVELOG", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		UploadsDir: appValues.String("uploads_dir"),
		UploadsURL: appValues.String("uploads_url"),

		AuditLog: appValues.String("audit_log"),

		SeedAdminUsername: appValues.String("seed_admin_username"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
		SeedAdminFullName: appValues.String("seed_admin_full_name"),
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// backend is touched.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if appCfg.UploadsDir == "" {
		return fmt.Errorf("uploads_dir must not be empty")
	}
	if coreCfg.Env == "prod" && appCfg.SeedAdminPassword == "admin123" {
		logger.Warn("seed admin password is the default; set MOVELOG_SEED_ADMIN_PASSWORD")
	}
	return nil
}
