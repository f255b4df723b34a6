// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/audit"
	"github.com/fieldops/movelog/internal/app/store/kb"
	"github.com/fieldops/movelog/internal/app/store/movements"
	"github.com/fieldops/movelog/internal/app/store/notifications"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
)

// EnsureAll creates every collection index the app depends on. Index
// builds are idempotent, so this runs on every startup.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"movements", movements.New(db).EnsureIndexes},
		{"notifications", notifications.New(db).EnsureIndexes},
		{"knowledge_base", kb.New(db).EnsureIndexes},
		{"audit_logs", audit.New(db).EnsureIndexes},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			logger.Error("index build failed", zap.String("collection", s.name), zap.Error(err))
			return err
		}
	}
	logger.Info("indexes ensured", zap.Int("collections", len(steps)))
	return nil
}
