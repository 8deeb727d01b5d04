// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminName, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin seeds (or promotes) the configured admin user so the identity
// gateway's admin has a matching directory record. Matching is
// case-insensitive on email.
func ensureAdmin(ctx context.Context, deps DBDeps, email, name string, logger *zap.Logger) error {
	now := time.Now().UTC()
	emailCI := text.Fold(email)

	res, err := deps.MongoDatabase.Collection("users").UpdateOne(ctx,
		bson.M{"email_ci": emailCI},
		bson.M{
			"$set": bson.M{
				"role":       models.RoleAdmin,
				"status":     "active",
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"full_name":  name,
				"email":      email,
				"email_ci":   emailCI,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	if res.UpsertedCount > 0 {
		logger.Info("created admin user", zap.String("email", email))
	} else {
		logger.Info("ensured admin user", zap.String("email", email))
	}
	return nil
}
