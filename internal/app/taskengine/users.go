package taskengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListUsers returns every user by name. Any signed-in actor may read the
// directory; it is how task creators find assignees and new members.
func (e *Engine) ListUsers(ctx context.Context, actorID primitive.ObjectID) ([]models.User, error) {
	const op = "list_users"
	if actorID.IsZero() {
		return nil, forbidden(op, taskpolicy.ReasonNoActor)
	}
	users, err := e.backend.Repos().Users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return nonNil(users), nil
}

// GetUser returns one user record.
func (e *Engine) GetUser(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	const op = "get_user"
	u, err := e.backend.Repos().Users.GetByID(ctx, userID)
	if errors.Is(err, storeerr.ErrNotFound) {
		return models.User{}, notFound(op, "user not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
