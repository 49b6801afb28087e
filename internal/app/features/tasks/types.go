// internal/app/features/tasks/types.go
package tasks

import (
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createIndividualRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	DueDate        string `json:"due_date"`
	AssignedUserID string `json:"assigned_user_id"`
}

func (req createIndividualRequest) input() (taskengine.IndividualTaskInput, error) {
	due, err := httpjson.ParseDueDate(req.DueDate)
	if err != nil {
		return taskengine.IndividualTaskInput{}, err
	}
	var assignee primitive.ObjectID
	if req.AssignedUserID != "" {
		if assignee, err = httpjson.ObjectID("assigned_user_id", req.AssignedUserID); err != nil {
			return taskengine.IndividualTaskInput{}, err
		}
	}
	return taskengine.IndividualTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       models.Priority(req.Priority),
		DueDate:        due,
		AssignedUserID: assignee,
	}, nil
}

type createGroupTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

func (req createGroupTaskRequest) input() (taskengine.GroupTaskInput, error) {
	due, err := httpjson.ParseDueDate(req.DueDate)
	if err != nil {
		return taskengine.GroupTaskInput{}, err
	}
	return taskengine.GroupTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		DueDate:     due,
	}, nil
}

// updateRequest is a partial update. Absent fields are unchanged; an empty
// due_date clears the due date.
type updateRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Priority       *string `json:"priority"`
	DueDate        *string `json:"due_date"`
	AssignedUserID *string `json:"assigned_user_id"`
}

func (req updateRequest) fields() (taskengine.TaskFields, error) {
	f := taskengine.TaskFields{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		f.Priority = &p
	}
	if req.DueDate != nil {
		due, err := httpjson.ParseDueDate(*req.DueDate)
		if err != nil {
			return taskengine.TaskFields{}, err
		}
		if due == nil {
			f.ClearDueDate = true
		}
		f.DueDate = due
	}
	if req.AssignedUserID != nil {
		id, err := httpjson.ObjectID("assigned_user_id", *req.AssignedUserID)
		if err != nil {
			return taskengine.TaskFields{}, err
		}
		f.AssignedUserID = &id
	}
	return f, nil
}

type statusRequest struct {
	Status string `json:"status"`
}
