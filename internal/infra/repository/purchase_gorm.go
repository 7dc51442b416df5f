package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseGormRepository struct {
	db *gorm.DB
}

func NewPurchaseGormRepository(db *gorm.DB) *PurchaseGormRepository {
	return &PurchaseGormRepository{db: db}
}

func (r *PurchaseGormRepository) Grant(ctx context.Context, purchase model.Purchase) error {
	//同じ(user, item_type, item_id, department)ならno-op
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "item_type"},
				{Name: "item_id"},
				{Name: "department"},
			},
			DoNothing: true,
		}).
		Create(&purchase).Error
}

func (r *PurchaseGormRepository) ListByUserID(ctx context.Context, userID string) ([]model.Purchase, error) {
	var items []model.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Purchase{}, err
	}
	return items, nil
}

func (r *PurchaseGormRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Purchase{}).Error
}
