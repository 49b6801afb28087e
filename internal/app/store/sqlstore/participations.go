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

// ParticipationRepo is the task_participations table.
type ParticipationRepo struct {
	db *gorm.DB
}

// InsertBatch writes all rows for taskID in one INSERT statement.
func (r *ParticipationRepo) InsertBatch(ctx context.Context, taskID primitive.ObjectID, userIDs []primitive.ObjectID, now time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]participationRow, 0, len(userIDs))
	for _, uid := range userIDs {
		rows = append(rows, participationRow{
			ID:        primitive.NewObjectID().Hex(),
			TaskID:    taskID.Hex(),
			UserID:    uid.Hex(),
			CreatedAt: now,
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storeerr.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ParticipationRepo) Get(ctx context.Context, taskID, userID primitive.ObjectID) (models.Participation, error) {
	var row participationRow
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID.Hex(), userID.Hex()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Participation{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.Participation{}, err
	}
	return row.model(), nil
}

// MarkCompleted completes the row if it is not already and returns it.
func (r *ParticipationRepo) MarkCompleted(ctx context.Context, taskID, userID primitive.ObjectID, at time.Time) (models.Participation, error) {
	err := r.db.WithContext(ctx).Model(&participationRow{}).
		Where("task_id = ? AND user_id = ? AND is_completed = ?", taskID.Hex(), userID.Hex(), false).
		Updates(map[string]any{"is_completed": true, "completed_at": at}).Error
	if err != nil {
		return models.Participation{}, err
	}
	return r.Get(ctx, taskID, userID)
}

func (r *ParticipationRepo) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Participation, error) {
	return r.find(ctx, "task_id = ?", taskID.Hex())
}

func (r *ParticipationRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Participation, error) {
	return r.find(ctx, "user_id = ?", userID.Hex())
}

func (r *ParticipationRepo) find(ctx context.Context, where, arg string) ([]models.Participation, error) {
	var rows []participationRow
	if err := r.db.WithContext(ctx).Where(where, arg).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Participation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// Counts reads the total and completed row counts for taskID in a single
// statement.
func (r *ParticipationRepo) Counts(ctx context.Context, taskID primitive.ObjectID) (total, completed int, err error) {
	var c counts
	err = r.db.WithContext(ctx).Model(&participationRow{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed").
		Where("task_id = ?", taskID.Hex()).
		Scan(&c).Error
	return int(c.Total), int(c.Completed), err
}

func (r *ParticipationRepo) DeleteByTask(ctx context.Context, taskID primitive.ObjectID) error {
	return r.db.WithContext(ctx).Where("task_id = ?", taskID.Hex()).Delete(&participationRow{}).Error
}
