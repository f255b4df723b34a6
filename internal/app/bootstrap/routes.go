// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auditfeature "github.com/fieldops/movelog/internal/app/features/auditlog"
	healthfeature "github.com/fieldops/movelog/internal/app/features/health"
	kbfeature "github.com/fieldops/movelog/internal/app/features/kb"
	loginfeature "github.com/fieldops/movelog/internal/app/features/login"
	movementsfeature "github.com/fieldops/movelog/internal/app/features/movements"
	notificationsfeature "github.com/fieldops/movelog/internal/app/features/notifications"
	reportsfeature "github.com/fieldops/movelog/internal/app/features/reports"
	usersfeature "github.com/fieldops/movelog/internal/app/features/users"
	auditstore "github.com/fieldops/movelog/internal/app/store/audit"
	notificationstore "github.com/fieldops/movelog/internal/app/store/notifications"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/auditlog"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/notify"
	"github.com/fieldops/movelog/internal/app/system/uploads"
)

// BuildHandler constructs the root HTTP handler for the app. WAFFLE
// calls this after config, DB connection, schema setup, and Startup
// have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	client := deps.MongoClient

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	uploadStore, err := uploads.New(appCfg.UploadsDir, appCfg.UploadsURL)
	if err != nil {
		logger.Error("upload store init failed", zap.Error(err))
		return nil, err
	}

	recorder := auditlog.New(auditstore.New(db), logger, auditlog.ParseMode(appCfg.AuditLog))
	dispatcher := notify.New(userstore.New(db), notificationstore.New(db), logger)

	r := chi.NewRouter()

	// Loads the SessionUser into context when a valid cookie arrives.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(client, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Avatar files, served read-only.
	r.Handle(appCfg.UploadsURL+"/*", fileserver.Handler(appCfg.UploadsURL, appCfg.UploadsDir))

	r.Route("/api", func(api chi.Router) {
		loginHandler := loginfeature.NewHandler(db, sessionMgr, recorder, logger)
		api.Mount("/", loginfeature.Routes(loginHandler, sessionMgr))

		usersHandler := usersfeature.NewHandler(client, db, recorder, uploadStore, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

		movementsHandler := movementsfeature.NewHandler(client, db, recorder, dispatcher, logger)
		api.Mount("/movements", movementsfeature.Routes(movementsHandler, sessionMgr))

		kbHandler := kbfeature.NewHandler(db, logger)
		api.Mount("/kb", kbfeature.Routes(kbHandler, sessionMgr))

		notificationsHandler := notificationsfeature.NewHandler(client, db, logger)
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

		reportsHandler := reportsfeature.NewHandler(db, logger)
		api.Mount("/stats", reportsfeature.DashboardRoutes(reportsHandler, sessionMgr))
		api.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

		auditHandler := auditfeature.NewHandler(db, logger)
		api.Mount("/audit", auditfeature.Routes(auditHandler, sessionMgr))
	})

	return r, nil
}
