// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory is the membership lookup the policy needs. Both record stores
// implement it.
type Directory interface {
	IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
}

// Role is a user's standing in one group.
type Role int

const (
	RoleNone Role = iota
	RoleMember
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	}
	return "none"
}

// RoleOf returns userID's role in groupID according to the authoritative
// membership records. A missing membership is RoleNone, not an error.
func RoleOf(ctx context.Context, d Directory, groupID, userID primitive.ObjectID) (Role, error) {
	if userID.IsZero() {
		return RoleNone, nil
	}
	member, err := d.IsMember(ctx, groupID, userID)
	if err != nil || !member {
		return RoleNone, err
	}
	admin, err := d.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return RoleNone, err
	}
	if admin {
		return RoleAdmin, nil
	}
	return RoleMember, nil
}

// CanManageGroup reports whether the user may change the group's
// membership or create, edit, finalize, and delete its tasks.
// Returns an error if the lookup fails, allowing callers to distinguish
// between "not authorized" (false, nil) and "database error" (false, err).
func CanManageGroup(ctx context.Context, d Directory, groupID, userID primitive.ObjectID) (bool, error) {
	role, err := RoleOf(ctx, d, groupID, userID)
	return role == RoleAdmin, err
}

// CanViewGroup reports whether the user may read the group, its members,
// its tasks, and its progress.
func CanViewGroup(ctx context.Context, d Directory, groupID, userID primitive.ObjectID) (bool, error) {
	role, err := RoleOf(ctx, d, groupID, userID)
	return role != RoleNone, err
}
