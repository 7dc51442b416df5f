package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"

	"gorm.io/datatypes"
)

var ErrNotFound = errors.New("not found")

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	//ゲートウェイ側IDでの副キー検索（webhookはこっちで来ることがある）
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Order, error)
	//ゲートウェイ側IDの紐付け。未設定のときだけ書く
	AttachGatewayOrder(ctx context.Context, orderID string, gatewayOrderID string) error
	//pendingのときだけcompletedへ。trueならこの呼び出しが唯一の勝者
	CompleteIfPending(ctx context.Context, orderID string, notes datatypes.JSON) (bool, error)
	//pendingのときだけfailedへ
	MarkFailed(ctx context.Context, orderID string) error
	DeleteByUserID(ctx context.Context, userID string) error
}
