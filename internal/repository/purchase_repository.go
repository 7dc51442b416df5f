package repository

import (
	"context"

	"app/internal/domain/model"
)

type PurchaseRepository interface {
	//一意キー衝突はno-op（冪等grant）
	Grant(ctx context.Context, purchase model.Purchase) error
	ListByUserID(ctx context.Context, userID string) ([]model.Purchase, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
