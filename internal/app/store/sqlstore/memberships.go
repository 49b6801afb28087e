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

// MembershipRepo is the group_memberships table. The unique
// (group_id, user_id) index backs the one-row-per-pair rule.
type MembershipRepo struct {
	db *gorm.DB
}

func (r *MembershipRepo) Add(ctx context.Context, m models.GroupMembership) error {
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	row := membershipRow{
		ID:        primitive.NewObjectID().Hex(),
		GroupID:   m.GroupID.Hex(),
		UserID:    m.UserID.Hex(),
		IsAdmin:   m.IsAdmin,
		CreatedAt: created,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storeerr.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MembershipRepo) Remove(ctx context.Context, groupID, userID primitive.ObjectID) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID.Hex(), userID.Hex()).
		Delete(&membershipRow{}).Error
}

func (r *MembershipRepo) IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&membershipRow{}).
		Where("group_id = ? AND user_id = ?", groupID.Hex(), userID.Hex()).
		Count(&n).Error
	return n > 0, err
}

func (r *MembershipRepo) IsAdmin(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&membershipRow{}).
		Where("group_id = ? AND user_id = ? AND is_admin = ?", groupID.Hex(), userID.Hex(), true).
		Count(&n).Error
	return n > 0, err
}

func (r *MembershipRepo) ListCurrentMembers(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := r.find(ctx, "group_id = ?", groupID.Hex())
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, oid(row.UserID))
	}
	return ids, nil
}

func (r *MembershipRepo) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupMembership, error) {
	return r.list(ctx, "group_id = ?", groupID.Hex())
}

func (r *MembershipRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.GroupMembership, error) {
	return r.list(ctx, "user_id = ?", userID.Hex())
}

func (r *MembershipRepo) list(ctx context.Context, where string, arg string) ([]models.GroupMembership, error) {
	rows, err := r.find(ctx, where, arg)
	if err != nil {
		return nil, err
	}
	out := make([]models.GroupMembership, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *MembershipRepo) find(ctx context.Context, where string, arg string) ([]membershipRow, error) {
	var rows []membershipRow
	err := r.db.WithContext(ctx).Where(where, arg).Order("created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}
