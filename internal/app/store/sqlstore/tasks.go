package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// TaskRepo is the tasks table. Writes that depend on the current status
// put it in the WHERE clause and check RowsAffected.
type TaskRepo struct {
	db *gorm.DB
}

func (r *TaskRepo) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	row := taskRowFrom(t)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Task{}, err
	}
	return row.model(), nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var row taskRow
	err := r.db.WithContext(ctx).Where("id = ?", id.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	return row.model(), nil
}

// Update writes the mutable fields of t if the stored status is still
// expect, and returns storeerr.ErrStale otherwise.
func (r *TaskRepo) Update(ctx context.Context, t models.Task, expect models.Status) error {
	set := map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"priority":    string(t.Priority),
		"due_date":    utc(t.DueDate),
		"updated_at":  t.UpdatedAt,
	}
	if t.AssignedUserID != nil {
		set["assigned_user_id"] = t.AssignedUserID.Hex()
	}
	res := r.db.WithContext(ctx).Model(&taskRow{}).
		Where("id = ? AND status = ?", t.ID.Hex(), string(expect)).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storeerr.ErrStale
	}
	return nil
}

func (r *TaskRepo) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.Status, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&taskRow{}).
		Where("id = ? AND status = ?", id.Hex(), string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID, expect models.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id.Hex(), string(expect)).
		Delete(&taskRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TaskRepo) ListAssignedTo(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return r.find(r.db.WithContext(ctx).Where("assignment_type = ? AND assigned_user_id = ?", string(models.AssignmentIndividual), userID.Hex()))
}

func (r *TaskRepo) ListCreatedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return r.find(r.db.WithContext(ctx).Where("created_by = ?", userID.Hex()))
}

func (r *TaskRepo) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Task, error) {
	return r.find(r.db.WithContext(ctx).Where("assignment_type = ? AND group_id = ?", string(models.AssignmentGroup), groupID.Hex()))
}

func (r *TaskRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(r.db.WithContext(ctx).Where("id IN ?", hexes(ids)))
}

func (r *TaskRepo) find(q *gorm.DB) ([]models.Task, error) {
	var rows []taskRow
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// CountByGroup counts a group's tasks and its COMPLETED tasks in one query.
func (r *TaskRepo) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (total, completed int, err error) {
	var c counts
	err = r.db.WithContext(ctx).Model(&taskRow{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed", string(models.StatusCompleted)).
		Where("assignment_type = ? AND group_id = ?", string(models.AssignmentGroup), groupID.Hex()).
		Scan(&c).Error
	return int(c.Total), int(c.Completed), err
}

type counts struct {
	Total     int64
	Completed int64
}
