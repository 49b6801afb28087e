// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/taskhub/internal/app/store/storeconn"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
)

// DBDeps holds the open record store and the engine built over it.
type DBDeps struct {
	Store  *storeconn.Conn
	Engine *taskengine.Engine
}
