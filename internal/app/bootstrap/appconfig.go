// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeconn"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging, and CORS. Everything
// specific to taskhub lives here and is passed to each lifecycle hook.
type AppConfig struct {
	// Record store selection and addressing
	Store storeconn.Config

	// Session cookies are issued by the credential service; taskhub reads them.
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// Audit logging: "all", "db", "log", or "off"
	AuditLogTask  string
	AuditLogGroup string

	// Report a missing task as forbidden instead of not found.
	ConcealMissingTasks bool

	// Write throttling per user; RateLimitWrites 0 disables it.
	RateLimitWrites int
	RateLimitWindow time.Duration

	Timeouts timeouts.Config
}

// Audit returns the audit logger settings.
func (c AppConfig) Audit() auditlog.Config {
	return auditlog.Config{Task: c.AuditLogTask, Group: c.AuditLogGroup}
}
