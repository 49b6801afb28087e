// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/taskhub/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/taskhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/taskhub/internal/app/features/health"
	tasksfeature "github.com/dalemusser/taskhub/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/taskhub/internal/app/features/users"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/app/system/reqid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, store connection, schema setup,
// and Startup have completed. Every task and group route requires a
// session issued by the credential service.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Drop sessions whose user no longer exists.
	sessionMgr.SetUserFetcher(deps.Store.Backend().Repos().Users)

	r := chi.NewRouter()
	r.Use(reqid.Middleware)
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(ratelimit.Writes(writeLimiter(appCfg), logger))
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store.Ping, deps.Store.Kind, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	tasksHandler := tasksfeature.NewHandler(deps.Engine, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	groupsHandler := groupsfeature.NewHandler(deps.Engine, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	usersHandler := usersfeature.NewHandler(deps.Engine, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	return r, nil
}

// writeLimiter returns nil when write throttling is off.
func writeLimiter(appCfg AppConfig) *ratelimit.Limiter {
	if appCfg.RateLimitWrites <= 0 {
		return nil
	}
	return ratelimit.New(appCfg.RateLimitWrites, appCfg.RateLimitWindow)
}
