// Package taskpolicy decides who may create, change, close, delete, and view tasks.
//
// Decide is a pure function: callers load the membership and ownership facts
// first and pass them in, so every (actor, action) combination can be tested
// without a database.
//
// Authorization rules:
//   - Individual tasks: the creator edits and deletes; creator or assignee
//     change status; creator or assignee view.
//   - Group tasks: group admins create, edit, finalize, and delete; members
//     holding a participation row mark their own part complete; any group
//     member or participant views.
//   - A finalized (COMPLETED) group task is locked: edits, participation
//     changes, finalize, and delete are refused with DenyLocked.
//   - Individual tasks never lock, even when COMPLETED.
package taskpolicy

import (
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is an operation an actor attempts on a task.
type Action string

const (
	ActionCreate       Action = "create"
	ActionEditFields   Action = "edit_fields"
	ActionChangeStatus Action = "change_status"
	ActionToggle       Action = "toggle_participation"
	ActionFinalize     Action = "finalize"
	ActionDelete       Action = "delete"
	ActionView         Action = "view"
)

// DenyKind separates "you may not" from "nobody may, the task is locked".
type DenyKind int

const (
	DenyNone DenyKind = iota
	DenyForbidden
	DenyLocked
)

func (k DenyKind) String() string {
	switch k {
	case DenyForbidden:
		return "forbidden"
	case DenyLocked:
		return "locked"
	}
	return "none"
}

// Facts are the pre-fetched inputs of a decision.
//
// Task is nil only for ActionCreate. For group creation, GroupID names the
// target group; for actions on an existing group task the membership flags
// refer to the task's group.
type Facts struct {
	ActorID primitive.ObjectID
	Task    *models.Task

	// Create only.
	AssignmentType models.AssignmentType
	GroupID        primitive.ObjectID

	IsMember         bool
	IsAdmin          bool
	HasParticipation bool
}

// Decision is the outcome of Decide. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Kind    DenyKind
	Reason  string
}

// Denial reasons.
const (
	ReasonNotAdmin           = "group admin access required"
	ReasonNotCreator         = "only the task creator can do this"
	ReasonNotCreatorOrAssign = "only the task creator or assigned user can update status"
	ReasonNotParticipant     = "no participation record for this task"
	ReasonNotVisible         = "task is not visible to this user"
	ReasonGroupStatus        = "group task status changes only through participation or finalize"
	ReasonNotGroupTask       = "action applies to group tasks only"
	ReasonLocked             = "task already finalized"
	ReasonNoActor            = "authenticated user required"
	ReasonUnknownAction      = "unknown action"
)

var allow = Decision{Allowed: true}

func forbid(reason string) Decision {
	return Decision{Kind: DenyForbidden, Reason: reason}
}

func locked() Decision {
	return Decision{Kind: DenyLocked, Reason: ReasonLocked}
}

// Decide applies the decision table to f for action a.
//
// Ownership is checked before lock state, so an outsider learns nothing
// about whether a task has been finalized.
func Decide(f Facts, a Action) Decision {
	if f.ActorID.IsZero() {
		return forbid(ReasonNoActor)
	}

	if a == ActionCreate {
		return decideCreate(f)
	}
	if f.Task == nil {
		return forbid(ReasonNotVisible)
	}
	if f.Task.IsGroup() {
		return decideGroup(f, a)
	}
	return decideIndividual(f, a)
}

func decideCreate(f Facts) Decision {
	switch f.AssignmentType {
	case models.AssignmentIndividual:
		return allow
	case models.AssignmentGroup:
		if !f.IsAdmin {
			return forbid(ReasonNotAdmin)
		}
		return allow
	}
	return forbid(ReasonUnknownAction)
}

func decideIndividual(f Facts, a Action) Decision {
	t := f.Task
	isCreator := t.CreatedBy == f.ActorID
	isAssignee := t.IsAssignedTo(f.ActorID)

	switch a {
	case ActionEditFields, ActionDelete:
		// COMPLETED individual tasks stay editable and deletable.
		if !isCreator {
			return forbid(ReasonNotCreator)
		}
		return allow
	case ActionChangeStatus:
		if !isCreator && !isAssignee {
			return forbid(ReasonNotCreatorOrAssign)
		}
		return allow
	case ActionView:
		if !isCreator && !isAssignee {
			return forbid(ReasonNotVisible)
		}
		return allow
	case ActionToggle, ActionFinalize:
		return forbid(ReasonNotGroupTask)
	}
	return forbid(ReasonUnknownAction)
}

func decideGroup(f Facts, a Action) Decision {
	done := f.Task.IsLocked()

	switch a {
	case ActionEditFields, ActionFinalize, ActionDelete:
		if !f.IsAdmin {
			return forbid(ReasonNotAdmin)
		}
		if done {
			return locked()
		}
		return allow
	case ActionToggle:
		if !f.HasParticipation {
			return forbid(ReasonNotParticipant)
		}
		if done {
			return locked()
		}
		return allow
	case ActionChangeStatus:
		return forbid(ReasonGroupStatus)
	case ActionView:
		if !f.IsMember && !f.HasParticipation {
			return forbid(ReasonNotVisible)
		}
		return allow
	}
	return forbid(ReasonUnknownAction)
}
