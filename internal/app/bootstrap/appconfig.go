// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (MOVELOG_*), config
// files, or command-line flags, loaded in LoadConfig. Framework-level
// settings (ports, TLS, log level) live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // connection string (e.g. mongodb://localhost:27017)
	MongoDatabase    string // database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret key for signing session cookies
	SessionName   string // cookie name
	SessionDomain string // cookie domain (blank means current host)

	// Avatar upload storage
	UploadsDir string // local directory uploaded files land in
	UploadsURL string // URL prefix files are served under

	// Audit trail routing: "all" (db+log), "db", "log", or "off"
	AuditLog string

	// Initial administrator seeded by EnsureSchema when absent
	SeedAdminUsername string
	SeedAdminPassword string
	SeedAdminFullName string
}
