package taskpolicy_test

import (
	"testing"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	creator  = primitive.NewObjectID()
	assignee = primitive.NewObjectID()
	outsider = primitive.NewObjectID()
	groupID  = primitive.NewObjectID()
)

func individualTask(status models.Status) *models.Task {
	a := assignee
	return &models.Task{
		ID:             primitive.NewObjectID(),
		Status:         status,
		AssignmentType: models.AssignmentIndividual,
		CreatedBy:      creator,
		AssignedUserID: &a,
	}
}

func groupTask(status models.Status) *models.Task {
	g := groupID
	return &models.Task{
		ID:             primitive.NewObjectID(),
		Status:         status,
		AssignmentType: models.AssignmentGroup,
		CreatedBy:      creator,
		GroupID:        &g,
	}
}

func TestDecide_Create(t *testing.T) {
	tests := []struct {
		name  string
		facts taskpolicy.Facts
		want  taskpolicy.DenyKind
	}{
		{"individual by anyone", taskpolicy.Facts{ActorID: outsider, AssignmentType: models.AssignmentIndividual}, taskpolicy.DenyNone},
		{"group by admin", taskpolicy.Facts{ActorID: creator, AssignmentType: models.AssignmentGroup, GroupID: groupID, IsMember: true, IsAdmin: true}, taskpolicy.DenyNone},
		{"group by plain member", taskpolicy.Facts{ActorID: creator, AssignmentType: models.AssignmentGroup, GroupID: groupID, IsMember: true}, taskpolicy.DenyForbidden},
		{"group by outsider", taskpolicy.Facts{ActorID: outsider, AssignmentType: models.AssignmentGroup, GroupID: groupID}, taskpolicy.DenyForbidden},
		{"no actor", taskpolicy.Facts{AssignmentType: models.AssignmentIndividual}, taskpolicy.DenyForbidden},
		{"unknown type", taskpolicy.Facts{ActorID: creator, AssignmentType: "TEAM"}, taskpolicy.DenyForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := taskpolicy.Decide(tt.facts, taskpolicy.ActionCreate)
			if d.Kind != tt.want {
				t.Errorf("Kind = %v, want %v (reason %q)", d.Kind, tt.want, d.Reason)
			}
			if d.Allowed != (tt.want == taskpolicy.DenyNone) {
				t.Errorf("Allowed = %v inconsistent with Kind %v", d.Allowed, d.Kind)
			}
		})
	}
}

func TestDecide_IndividualTask(t *testing.T) {
	tests := []struct {
		name   string
		actor  primitive.ObjectID
		status models.Status
		action taskpolicy.Action
		want   taskpolicy.DenyKind
	}{
		{"creator edits", creator, models.StatusTodo, taskpolicy.ActionEditFields, taskpolicy.DenyNone},
		{"assignee cannot edit", assignee, models.StatusTodo, taskpolicy.ActionEditFields, taskpolicy.DenyForbidden},
		{"outsider cannot edit", outsider, models.StatusTodo, taskpolicy.ActionEditFields, taskpolicy.DenyForbidden},
		{"creator edits completed", creator, models.StatusCompleted, taskpolicy.ActionEditFields, taskpolicy.DenyNone},

		{"creator changes status", creator, models.StatusTodo, taskpolicy.ActionChangeStatus, taskpolicy.DenyNone},
		{"assignee changes status", assignee, models.StatusInProgress, taskpolicy.ActionChangeStatus, taskpolicy.DenyNone},
		{"assignee reopens completed", assignee, models.StatusCompleted, taskpolicy.ActionChangeStatus, taskpolicy.DenyNone},
		{"outsider cannot change status", outsider, models.StatusTodo, taskpolicy.ActionChangeStatus, taskpolicy.DenyForbidden},

		{"creator deletes", creator, models.StatusTodo, taskpolicy.ActionDelete, taskpolicy.DenyNone},
		{"creator deletes completed", creator, models.StatusCompleted, taskpolicy.ActionDelete, taskpolicy.DenyNone},
		{"assignee cannot delete", assignee, models.StatusTodo, taskpolicy.ActionDelete, taskpolicy.DenyForbidden},

		{"creator views", creator, models.StatusTodo, taskpolicy.ActionView, taskpolicy.DenyNone},
		{"assignee views", assignee, models.StatusTodo, taskpolicy.ActionView, taskpolicy.DenyNone},
		{"outsider cannot view", outsider, models.StatusTodo, taskpolicy.ActionView, taskpolicy.DenyForbidden},

		{"toggle not applicable", creator, models.StatusTodo, taskpolicy.ActionToggle, taskpolicy.DenyForbidden},
		{"finalize not applicable", creator, models.StatusTodo, taskpolicy.ActionFinalize, taskpolicy.DenyForbidden},
		{"unknown action", creator, models.StatusTodo, taskpolicy.Action("archive"), taskpolicy.DenyForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := taskpolicy.Facts{ActorID: tt.actor, Task: individualTask(tt.status)}
			d := taskpolicy.Decide(f, tt.action)
			if d.Kind != tt.want {
				t.Errorf("Kind = %v, want %v (reason %q)", d.Kind, tt.want, d.Reason)
			}
		})
	}
}

func TestDecide_GroupTask(t *testing.T) {
	type role struct {
		member, admin, participant bool
	}
	var (
		admin       = role{member: true, admin: true, participant: true}
		member      = role{member: true, participant: true}
		lateMember  = role{member: true}
		formerMemb  = role{participant: true}
		nonMember   = role{}
		adminNoPart = role{member: true, admin: true}
	)

	tests := []struct {
		name   string
		role   role
		status models.Status
		action taskpolicy.Action
		want   taskpolicy.DenyKind
	}{
		{"admin edits", admin, models.StatusTodo, taskpolicy.ActionEditFields, taskpolicy.DenyNone},
		{"admin edits finalized", admin, models.StatusCompleted, taskpolicy.ActionEditFields, taskpolicy.DenyLocked},
		{"member cannot edit", member, models.StatusTodo, taskpolicy.ActionEditFields, taskpolicy.DenyForbidden},
		{"member editing finalized is forbidden not locked", member, models.StatusCompleted, taskpolicy.ActionEditFields, taskpolicy.DenyForbidden},
		{"non-member cannot edit", nonMember, models.StatusTodo, taskpolicy.ActionEditFields, taskpolicy.DenyForbidden},

		{"admin finalizes", admin, models.StatusTodo, taskpolicy.ActionFinalize, taskpolicy.DenyNone},
		{"admin finalizes twice", admin, models.StatusCompleted, taskpolicy.ActionFinalize, taskpolicy.DenyLocked},
		{"member cannot finalize", member, models.StatusTodo, taskpolicy.ActionFinalize, taskpolicy.DenyForbidden},
		{"non-member cannot finalize", nonMember, models.StatusTodo, taskpolicy.ActionFinalize, taskpolicy.DenyForbidden},

		{"admin deletes", admin, models.StatusTodo, taskpolicy.ActionDelete, taskpolicy.DenyNone},
		{"admin cannot delete finalized", admin, models.StatusCompleted, taskpolicy.ActionDelete, taskpolicy.DenyLocked},
		{"member cannot delete", member, models.StatusTodo, taskpolicy.ActionDelete, taskpolicy.DenyForbidden},

		{"participant toggles", member, models.StatusTodo, taskpolicy.ActionToggle, taskpolicy.DenyNone},
		{"former member keeps row and toggles", formerMemb, models.StatusTodo, taskpolicy.ActionToggle, taskpolicy.DenyNone},
		{"participant toggles finalized", member, models.StatusCompleted, taskpolicy.ActionToggle, taskpolicy.DenyLocked},
		{"late member has no row", lateMember, models.StatusTodo, taskpolicy.ActionToggle, taskpolicy.DenyForbidden},
		{"admin without row cannot toggle", adminNoPart, models.StatusTodo, taskpolicy.ActionToggle, taskpolicy.DenyForbidden},
		{"non-member toggling finalized is forbidden", nonMember, models.StatusCompleted, taskpolicy.ActionToggle, taskpolicy.DenyForbidden},

		{"status never set directly", admin, models.StatusTodo, taskpolicy.ActionChangeStatus, taskpolicy.DenyForbidden},

		{"member views", lateMember, models.StatusTodo, taskpolicy.ActionView, taskpolicy.DenyNone},
		{"former member views via row", formerMemb, models.StatusCompleted, taskpolicy.ActionView, taskpolicy.DenyNone},
		{"non-member cannot view", nonMember, models.StatusTodo, taskpolicy.ActionView, taskpolicy.DenyForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := taskpolicy.Facts{
				ActorID:          outsider,
				Task:             groupTask(tt.status),
				IsMember:         tt.role.member,
				IsAdmin:          tt.role.admin,
				HasParticipation: tt.role.participant,
			}
			d := taskpolicy.Decide(f, tt.action)
			if d.Kind != tt.want {
				t.Errorf("Kind = %v, want %v (reason %q)", d.Kind, tt.want, d.Reason)
			}
			if d.Kind == taskpolicy.DenyLocked && d.Reason != taskpolicy.ReasonLocked {
				t.Errorf("Reason = %q, want %q", d.Reason, taskpolicy.ReasonLocked)
			}
		})
	}
}

func TestDecide_NilTask(t *testing.T) {
	d := taskpolicy.Decide(taskpolicy.Facts{ActorID: creator}, taskpolicy.ActionView)
	if d.Allowed || d.Kind != taskpolicy.DenyForbidden {
		t.Errorf("expected forbidden for missing task, got %+v", d)
	}
}

func TestDenyKind_String(t *testing.T) {
	tests := map[taskpolicy.DenyKind]string{
		taskpolicy.DenyNone:      "none",
		taskpolicy.DenyForbidden: "forbidden",
		taskpolicy.DenyLocked:    "locked",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
