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

// GroupRepo is the groups table.
type GroupRepo struct {
	db *gorm.DB
}

func (r *GroupRepo) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	row := groupRow{
		ID:          g.ID.Hex(),
		Name:        g.Name,
		NameCI:      text.Fold(g.Name),
		Description: g.Description,
		CreatedBy:   g.CreatedBy.Hex(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Group{}, err
	}
	return row.model(), nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var row groupRow
	err := r.db.WithContext(ctx).Where("id = ?", id.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Group{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	return row.model(), nil
}

func (r *GroupRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []groupRow
	if err := r.db.WithContext(ctx).Where("id IN ?", hexes(ids)).Order("name_ci ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Group, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
