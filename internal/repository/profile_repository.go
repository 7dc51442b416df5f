package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, userID string) (model.Profile, error)
	//プレミアム期限を上書きする（延長ではなくリセット）
	SetPremiumUntil(ctx context.Context, userID string, expiry time.Time) error
	DeleteByID(ctx context.Context, userID string) error
}
