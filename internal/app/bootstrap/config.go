// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeconn"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for taskhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, store_backend, etc.
//   - Environment variables: TASKHUB_MONGO_URI, TASKHUB_STORE_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --store_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: "mongo", Desc: "Record store: 'mongo' or 'sqlite'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "sqlite_dsn", Default: "data/taskhub.db", Desc: "SQLite database file (used when store_backend is 'sqlite')"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key shared with the credential service"},
	{Name: "session_name", Default: "taskhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Audit logging settings
	{Name: "audit_log_task", Default: "all", Desc: "Task event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_group", Default: "all", Desc: "Group event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "conceal_missing_tasks", Default: false, Desc: "Report missing tasks as forbidden so outsiders cannot tell which IDs exist"},

	{Name: "rate_limit_writes", Default: 120, Desc: "Write requests allowed per user per window (0 disables)"},
	{Name: "rate_limit_window", Default: "1m", Desc: "Window for rate_limit_writes"},

	// Store call deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-record operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for task operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for operator commands"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence:
// flags > env (TASKHUB_*) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		Store: storeconn.Config{
			Kind:          appValues.String("store_backend"),
			MongoURI:      appValues.String("mongo_uri"),
			MongoDatabase: appValues.String("mongo_database"),
			MaxPoolSize:   uint64(appValues.Int("mongo_max_pool_size")),
			MinPoolSize:   uint64(appValues.Int("mongo_min_pool_size")),
			SQLiteDSN:     appValues.String("sqlite_dsn"),
		},

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		AuditLogTask:  appValues.String("audit_log_task"),
		AuditLogGroup: appValues.String("audit_log_group"),

		ConcealMissingTasks: appValues.Bool("conceal_missing_tasks"),

		RateLimitWrites: appValues.Int("rate_limit_writes"),
		RateLimitWindow: appValues.Duration("rate_limit_window", time.Minute),

		Timeouts: timeouts.Config{
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		},
	}

	return coreCfg, appCfg, nil
}

var auditSettings = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := appCfg.Store.Validate(); err != nil {
		logger.Error("invalid store config", zap.Error(err))
		return err
	}
	if appCfg.Store.Kind == storeconn.KindMongo {
		if err := wafflemongo.ValidateURI(appCfg.Store.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key must be set")
	}
	if appCfg.RateLimitWrites < 0 {
		return fmt.Errorf("rate_limit_writes must not be negative")
	}
	if appCfg.RateLimitWrites > 0 && appCfg.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive when rate_limit_writes is set")
	}
	for key, v := range map[string]string{"audit_log_task": appCfg.AuditLogTask, "audit_log_group": appCfg.AuditLogGroup} {
		if !auditSettings[v] {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}
	return nil
}
