package usecase

import (
	"context"
	"log/slog"
	"net/http"

	repo "app/internal/repository"
)

// authプロバイダのadmin APIでユーザー本体を消す約束
type IdentityAdmin interface {
	DeleteUser(ctx context.Context, userID string) error
}

// アバターなどのblob掃除の約束
type BlobStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, paths []string) error
}

type AccountUsecase struct {
	orders    repo.OrderRepository
	purchases repo.PurchaseRepository
	profiles  repo.ProfileRepository
	identity  IdentityAdmin
	blobs     BlobStore
	logger    *slog.Logger
}

func NewAccountUsecase(
	orders repo.OrderRepository,
	purchases repo.PurchaseRepository,
	profiles repo.ProfileRepository,
	identity IdentityAdmin,
	blobs BlobStore,
	logger *slog.Logger,
) *AccountUsecase {
	return &AccountUsecase{
		orders:    orders,
		purchases: purchases,
		profiles:  profiles,
		identity:  identity,
		blobs:     blobs,
		logger:    logger,
	}
}

type DeleteAccountOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Deleteはユーザーのデータを消してから、最後にauthユーザー本体を消す。
// 途中の失敗はログのみ。auth削除の失敗だけは全体の失敗。
func (u *AccountUsecase) Delete(ctx context.Context, userID string) (DeleteAccountOutput, error) {
	if userID == "" {
		return DeleteAccountOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//アバター掃除（best-effort）
	paths, err := u.blobs.List(ctx, userID)
	if err != nil {
		u.logger.Warn("failed to list avatar files",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	} else if len(paths) > 0 {
		if err := u.blobs.Remove(ctx, paths); err != nil {
			u.logger.Warn("failed to remove avatar files",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}

	//DB行の削除。部分失敗しても最後のauth削除へ進む
	if err := u.profiles.DeleteByID(ctx, userID); err != nil {
		u.logger.Warn("failed to delete profile row",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
	if err := u.purchases.DeleteByUserID(ctx, userID); err != nil {
		u.logger.Warn("failed to delete purchase rows",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
	if err := u.orders.DeleteByUserID(ctx, userID); err != nil {
		u.logger.Warn("failed to delete order rows",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}

	//ここの失敗は偽の成功を返さない
	if err := u.identity.DeleteUser(ctx, userID); err != nil {
		u.logger.Error("auth user deletion failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return DeleteAccountOutput{}, NewHTTPError(http.StatusBadRequest, "auth deletion failed")
	}

	return DeleteAccountOutput{
		Success: true,
		Message: "account and associated data deleted successfully",
	}, nil
}
