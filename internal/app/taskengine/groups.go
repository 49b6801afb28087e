package taskengine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Member is one user in a group.
type Member struct {
	User     models.User `json:"user"`
	IsAdmin  bool        `json:"is_admin"`
	JoinedAt time.Time   `json:"joined_at"`
}

// GroupDetails is a group with its current members.
type GroupDetails struct {
	Group   models.Group `json:"group"`
	Members []Member     `json:"members"`
}

// MyGroup is a group the actor belongs to.
type MyGroup struct {
	Group   models.Group `json:"group"`
	IsAdmin bool         `json:"is_admin"`
}

// CreateGroup creates a group with the creator as its first admin.
func (e *Engine) CreateGroup(ctx context.Context, creatorID primitive.ObjectID, in GroupInput) (models.Group, error) {
	const op = "create_group"

	if creatorID.IsZero() {
		return models.Group{}, e.failGroup(ctx, op, creatorID, primitive.NilObjectID, forbidden(op, taskpolicy.ReasonNoActor))
	}
	in = in.normalized()
	if err := check(op, in); err != nil {
		return models.Group{}, e.failGroup(ctx, op, creatorID, primitive.NilObjectID, err)
	}

	var out models.Group
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		now := e.clock()
		g, err := r.Groups.Create(ctx, models.Group{
			ID:          primitive.NewObjectID(),
			Name:        in.Name,
			Description: in.Description,
			CreatedBy:   creatorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("%s: insert group: %w", op, err)
		}
		if err := r.Memberships.Add(ctx, models.GroupMembership{
			GroupID: g.ID,
			UserID:  creatorID,
			IsAdmin: true,
		}); err != nil {
			return fmt.Errorf("%s: add creator: %w", op, err)
		}
		out = g
		return nil
	})
	if err != nil {
		return models.Group{}, e.failGroup(ctx, op, creatorID, primitive.NilObjectID, err)
	}

	e.log.Info("group created",
		zap.String("op", op),
		zap.String("actor_id", creatorID.Hex()),
		zap.String("group_id", out.ID.Hex()))
	e.audit.GroupCreated(ctx, creatorID, out)
	return out, nil
}

// GetGroup returns a group and its members. The actor must be a member.
func (e *Engine) GetGroup(ctx context.Context, actorID, groupID primitive.ObjectID) (GroupDetails, error) {
	const op = "get_group"
	r := e.backend.Repos()

	if err := requireMember(ctx, r, op, actorID, groupID); err != nil {
		return GroupDetails{}, e.failGroup(ctx, op, actorID, groupID, err)
	}
	g, err := r.Groups.GetByID(ctx, groupID)
	if err != nil {
		return GroupDetails{}, fmt.Errorf("%s: load group: %w", op, err)
	}
	rows, err := r.Memberships.ListByGroup(ctx, groupID)
	if err != nil {
		return GroupDetails{}, fmt.Errorf("%s: list members: %w", op, err)
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	users, err := r.Users.ListByIDs(ctx, ids)
	if err != nil {
		return GroupDetails{}, fmt.Errorf("%s: load users: %w", op, err)
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := GroupDetails{Group: g, Members: make([]Member, 0, len(rows))}
	for _, m := range rows {
		u, ok := byID[m.UserID]
		if !ok {
			u = models.User{ID: m.UserID}
		}
		out.Members = append(out.Members, Member{User: u, IsAdmin: m.IsAdmin, JoinedAt: m.CreatedAt})
	}
	return out, nil
}

// MyGroups lists the groups the actor belongs to, by name.
func (e *Engine) MyGroups(ctx context.Context, actorID primitive.ObjectID) ([]MyGroup, error) {
	const op = "my_groups"
	r := e.backend.Repos()

	rows, err := r.Memberships.ListByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%s: list memberships: %w", op, err)
	}
	admin := make(map[primitive.ObjectID]bool, len(rows))
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, m := range rows {
		admin[m.GroupID] = m.IsAdmin
		ids = append(ids, m.GroupID)
	}
	groups, err := r.Groups.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: load groups: %w", op, err)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].NameCI < groups[j].NameCI })

	out := make([]MyGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, MyGroup{Group: g, IsAdmin: admin[g.ID]})
	}
	return out, nil
}

// AddMember adds userID to a group as a regular member. Only an admin may
// add members. Existing group tasks keep their participation snapshot.
func (e *Engine) AddMember(ctx context.Context, actorID, groupID, userID primitive.ObjectID) (models.GroupMembership, error) {
	const op = "add_member"

	var out models.GroupMembership
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		if err := requireAdmin(ctx, r, op, actorID, groupID); err != nil {
			return err
		}
		ok, err := r.Users.UserExists(ctx, userID)
		if err != nil {
			return fmt.Errorf("%s: user lookup: %w", op, err)
		}
		if !ok {
			return notFound(op, "user not found")
		}

		m := models.GroupMembership{GroupID: groupID, UserID: userID, CreatedAt: e.clock()}
		if err := r.Memberships.Add(ctx, m); err != nil {
			if errors.Is(err, storeerr.ErrDuplicate) {
				return validation(op, "user already in group")
			}
			return fmt.Errorf("%s: add membership: %w", op, err)
		}
		out = m
		return nil
	})
	if err != nil {
		return models.GroupMembership{}, e.failGroup(ctx, op, actorID, groupID, err)
	}

	e.log.Info("member added to group",
		zap.String("op", op),
		zap.String("actor_id", actorID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.String("user_id", userID.Hex()))
	e.audit.MemberAdded(ctx, actorID, groupID, userID)
	return out, nil
}

// RemoveMember removes userID from a group. Only an admin may remove
// members; removing a non-member succeeds. Participation rows already
// created for the user are kept.
func (e *Engine) RemoveMember(ctx context.Context, actorID, groupID, userID primitive.ObjectID) error {
	const op = "remove_member"

	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		if err := requireAdmin(ctx, r, op, actorID, groupID); err != nil {
			return err
		}
		if err := r.Memberships.Remove(ctx, groupID, userID); err != nil {
			return fmt.Errorf("%s: remove membership: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return e.failGroup(ctx, op, actorID, groupID, err)
	}

	e.log.Info("member removed from group",
		zap.String("op", op),
		zap.String("actor_id", actorID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.String("user_id", userID.Hex()))
	e.audit.MemberRemoved(ctx, actorID, groupID, userID)
	return nil
}

func requireAdmin(ctx context.Context, r Repos, op string, actorID, groupID primitive.ObjectID) error {
	if err := requireGroup(ctx, r, op, actorID, groupID); err != nil {
		return err
	}
	ok, err := grouppolicy.CanManageGroup(ctx, r.Memberships, groupID, actorID)
	if err != nil {
		return fmt.Errorf("%s: admin lookup: %w", op, err)
	}
	if !ok {
		return forbidden(op, taskpolicy.ReasonNotAdmin)
	}
	return nil
}
