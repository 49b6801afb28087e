// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/store/storeconn"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the configured record store and assembles the engine.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	conn, err := storeconn.Open(ctx, appCfg.Store, logger)
	if err != nil {
		logger.Error("store connect failed", zap.String("backend", appCfg.Store.Kind), zap.Error(err))
		return DBDeps{}, err
	}
	return DBDeps{
		Store:  conn,
		Engine: conn.Engine(appCfg.Audit(), appCfg.ConcealMissingTasks),
	}, nil
}

// EnsureSchema creates Mongo indexes or migrates SQLite tables.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := deps.Store.EnsureSchema(ctx); err != nil {
		logger.Error("schema setup failed", zap.String("backend", deps.Store.Kind), zap.Error(err))
		return err
	}
	logger.Info("schema ready", zap.String("backend", deps.Store.Kind))
	return nil
}
