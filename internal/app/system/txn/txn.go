// Package txn runs a group of Mongo writes as one transaction.
//
// Standalone mongod and some managed deployments reject transactions. When
// that happens Run logs a warning and executes fn once without a session, so
// callers that must stay all-or-nothing keep their own compensating cleanup.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes that mean "this deployment cannot run a transaction".
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers only allowed on replica set members
	51:  true,
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err says transactions or sessions are not
// available on the connected deployment.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}

// Run executes fn inside a transaction on db's client. fn must use the ctx
// it is given so its operations join the session. WithTransaction may call
// fn more than once on transient errors.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			warnFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		warnFallback(log, err)
		return fn(ctx)
	}
	return err
}

func warnFallback(log *zap.Logger, err error) {
	if log == nil {
		return
	}
	log.Warn("transactions not supported; running without transaction", zap.Error(err))
}
