package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// UserRepo is the users table.
type UserRepo struct {
	db *gorm.DB
}

func (r *UserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("id = ?", id.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return row.model(), nil
}

func (r *UserRepo) UserExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id.Hex()).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByIDs returns the users with the given IDs sorted by name.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []userRow
	if err := r.db.WithContext(ctx).Where("id IN ?", hexes(ids)).Order("full_name_ci ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *UserRepo) ListAll(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("full_name_ci ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// Create inserts a user; a taken email returns storeerr.ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	row := userRow{
		ID:         u.ID.Hex(),
		FullName:   u.FullName,
		FullNameCI: text.Fold(u.FullName),
		Email:      u.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, storeerr.ErrDuplicate
		}
		return models.User{}, err
	}
	return row.model(), nil
}

// GetByEmail returns the user with email or storeerr.ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return row.model(), nil
}
