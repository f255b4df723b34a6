// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/indexes"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/domain/models"
)

// ConnectDB establishes the MongoDB connection used for the whole
// process lifetime and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema builds the collection indexes and seeds the initial
// administrator when no account with the configured username exists.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		return err
	}
	return seedAdmin(ctx, appCfg, deps, logger)
}

func seedAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	_, err := users.GetByUsername(ctx, appCfg.SeedAdminUsername)
	if err == nil {
		return nil
	}
	if err != userstore.ErrNotFound {
		return fmt.Errorf("seed admin lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed admin hash: %w", err)
	}
	_, err = users.Create(ctx, models.User{
		Username:     appCfg.SeedAdminUsername,
		PasswordHash: string(hash),
		FullName:     appCfg.SeedAdminFullName,
		Role:         roles.SystemAdministrator,
		Status:       models.UserActive,
	})
	if err == userstore.ErrDuplicate {
		// Another instance seeded concurrently.
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin create: %w", err)
	}
	logger.Info("seeded initial administrator",
		zap.String("username", appCfg.SeedAdminUsername))
	return nil
}
