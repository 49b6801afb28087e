// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the store connection.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Store == nil {
		return nil
	}
	logger.Info("closing record store", zap.String("backend", deps.Store.Kind))
	if err := deps.Store.Close(ctx); err != nil {
		logger.Error("store close failed", zap.Error(err))
		return err
	}
	return nil
}
