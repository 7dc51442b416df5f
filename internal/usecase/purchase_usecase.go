package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/datatypes"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 決済通貨（ゲートウェイはINR前提）
const currency = "INR"

// プレミアム購読の解放期間
const premiumWindow = 30 * 24 * time.Hour

// ゲートウェイ側に注文を作る約束
type PaymentGateway interface {
	CreateRemoteOrder(ctx context.Context, amount float64, currency string, receipt string, notes map[string]string) (string, error)
}

// 外部決済をプラットフォームへ報告する約束
type TransactionReporter interface {
	ReportTransaction(ctx context.Context, orderID string, sku string, amount float64, currency string, externalToken string) error
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type PurchaseUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	purchases repo.PurchaseRepository
	profiles  repo.ProfileRepository
	gw        PaymentGateway
	reporter  TransactionReporter
	idGen     IDGenerator
	clock     Clock
	keyID     string //クライアントの決済UIに渡すゲートウェイ公開キー
	logger    *slog.Logger
}

func NewPurchaseUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	purchases repo.PurchaseRepository,
	profiles repo.ProfileRepository,
	gw PaymentGateway,
	reporter TransactionReporter,
	idGen IDGenerator,
	clock Clock,
	keyID string,
	logger *slog.Logger,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		tx:        tx,
		orders:    orders,
		purchases: purchases,
		profiles:  profiles,
		gw:        gw,
		reporter:  reporter,
		idGen:     idGen,
		clock:     clock,
		keyID:     keyID,
		logger:    logger,
	}
}

type CreateOrderInput struct {
	ItemID        string
	ItemType      string
	Amount        float64
	PaymentMethod string //省略可。"upi"ならintent URLも返す
}

type CreateOrderOutput struct {
	OrderID        string  `json:"orderId"`
	GatewayOrderID string  `json:"gatewayOrderId"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	KeyID          string  `json:"keyId"`
	UpiIntentURL   string  `json:"upiIntentUrl,omitempty"`
}

// CreateOrderはpendingのOrderを作ってからゲートウェイに注文を作る。
// ゲートウェイ失敗でもOrderはpendingのまま残る。
func (u *PurchaseUsecase) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (CreateOrderOutput, error) {
	if userID == "" {
		return CreateOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.ItemID) == "" || strings.TrimSpace(in.ItemType) == "" || in.Amount <= 0 {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "missing required fields: itemId, itemType, amount")
	}

	//先にpendingで永続化（ゲートウェイより前）
	order := model.Order{
		ID:       u.idGen.NewID(),
		UserID:   userID,
		ItemID:   in.ItemID,
		ItemType: in.ItemType,
		Amount:   in.Amount,
		Currency: currency,
		Status:   model.OrderStatusPending,
	}
	if err := u.orders.Create(ctx, order); err != nil {
		return CreateOrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	gatewayOrderID, err := u.gw.CreateRemoteOrder(ctx, in.Amount, currency, order.ID, map[string]string{
		"itemId":   in.ItemID,
		"itemType": in.ItemType,
		"userId":   userID,
	})
	if err != nil {
		u.logger.Error("gateway order creation failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()))
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment gateway unavailable")
	}

	//紐付けはbest-effort。失敗しても支払い自体は進められる
	if err := u.orders.AttachGatewayOrder(ctx, order.ID, gatewayOrderID); err != nil {
		u.logger.Warn("failed to attach gateway order id",
			slog.String("order_id", order.ID),
			slog.String("gateway_order_id", gatewayOrderID),
			slog.String("error", err.Error()))
	}

	out := CreateOrderOutput{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrderID,
		Amount:         in.Amount,
		Currency:       currency,
		KeyID:          u.keyID,
	}

	if strings.EqualFold(in.PaymentMethod, "upi") {
		out.UpiIntentURL = buildUpiIntentURL(order.ID, in.Amount, in.ItemID)
	}

	return out, nil
}

// Confirmationはwebhookとクライアント報告の両方が行き着く共通メッセージ。
type Confirmation struct {
	OrderRef      string //主キーまたはゲートウェイ側ID
	UserID        string //クライアント報告のときだけ入る
	PaymentID     string
	Signature     string
	ExternalToken string
}

type ConfirmOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Confirmは注文をcompletedへ遷移させ、勝者だけが報告と解放を実行する。
// 同じ確認が何度来ても結果は同じ（冪等）。
func (u *PurchaseUsecase) Confirm(ctx context.Context, in Confirmation) (ConfirmOutput, error) {
	if strings.TrimSpace(in.OrderRef) == "" {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "missing order reference")
	}

	var order model.Order
	var winner bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrderByRef(ctx, r.Orders(), in.OrderRef)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//他人の注文は「存在しない扱い」にする
		if in.UserID != "" && o.UserID != in.UserID {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}

		order = o

		if o.Status == model.OrderStatusCompleted {
			//すでに処理済み。再配達しない
			winner = false
			return nil
		}
		if o.Status == model.OrderStatusFailed {
			return NewHTTPError(http.StatusBadRequest, "order already failed")
		}

		notes, err := mergeNotes(o.Notes, in)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//pendingのときだけ勝てる条件付き更新
		won, err := r.Orders().CompleteIfPending(ctx, o.ID, notes)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		winner = won
		return nil
	})
	if err != nil {
		return ConfirmOutput{}, err
	}

	if !winner {
		//webhookとクライアント報告が競争しても、負けた側はここで終わり
		return ConfirmOutput{Success: true, Message: "order already processed"}, nil
	}

	//プラットフォーム報告はfire-and-forget。失敗しても解放は止めない
	if err := u.reporter.ReportTransaction(ctx, order.ID, order.ItemID, order.Amount, order.Currency, in.ExternalToken); err != nil {
		u.logger.Warn("billing compliance reporting failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()))
	}

	if err := u.deliver(ctx, order); err != nil {
		//orderはcompleted済みなのに解放できていない。再調停できるよう区別して返す
		u.logger.Error("entitlement delivery failed",
			slog.String("order_id", order.ID),
			slog.String("user_id", order.UserID),
			slog.String("error", err.Error()))
		return ConfirmOutput{}, NewHTTPError(http.StatusInternalServerError, "delivery failed")
	}

	return ConfirmOutput{Success: true, Message: "transaction reported and content unlocked"}, nil
}

// ListPurchasesはユーザーの解放済みコンテンツ一覧を返す。
func (u *PurchaseUsecase) ListPurchases(ctx context.Context, userID string) ([]model.Purchase, error) {
	if userID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.purchases.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// FailOrderはゲートウェイから失敗通知が来たときにpendingの注文をfailedにする。
// completed済みは巻き戻さない。
func (u *PurchaseUsecase) FailOrder(ctx context.Context, orderRef string) error {
	if strings.TrimSpace(orderRef) == "" {
		return NewHTTPError(http.StatusBadRequest, "missing order reference")
	}

	o, err := findOrderByRef(ctx, u.orders, orderRef)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.orders.MarkFailed(ctx, o.ID); err != nil && err != repo.ErrNotFound {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// itemTypeごとの解放処理
func (u *PurchaseUsecase) deliver(ctx context.Context, order model.Order) error {
	switch order.ItemType {
	case "premium_subscription":
		//期限は常に「今から30日」。前の期限からの延長はしない
		expiry := u.clock.Now().Add(premiumWindow)
		return u.profiles.SetPremiumUntil(ctx, order.UserID, expiry)
	default:
		return u.purchases.Grant(ctx, model.Purchase{
			UserID:     order.UserID,
			ItemType:   order.ItemType,
			ItemID:     order.ItemID,
			Department: DeriveDepartment(order.ItemID),
			OrderID:    order.ID,
		})
	}
}

// 主キー→ゲートウェイ側IDの順で探す
func findOrderByRef(ctx context.Context, orders repo.OrderRepository, ref string) (model.Order, error) {
	o, err := orders.FindByID(ctx, ref)
	if err == nil {
		return o, nil
	}
	if err != repo.ErrNotFound {
		return model.Order{}, err
	}
	return orders.FindByGatewayOrderID(ctx, ref)
}

// DeriveDepartmentはitemIdから学科コードを取り出す。
// "unit_CSE_1_Physics_2" → "CSE"。区切りがなければnil。
func DeriveDepartment(itemID string) *string {
	parts := strings.Split(itemID, "_")
	if len(parts) < 2 || parts[1] == "" {
		return nil
	}
	return &parts[1]
}

func mergeNotes(existing datatypes.JSON, in Confirmation) (datatypes.JSON, error) {
	notes := map[string]interface{}{}
	if len(existing) > 0 {
		//壊れたnotesは作り直す
		_ = json.Unmarshal(existing, &notes)
	}

	notes["razorpay_payment_id"] = in.PaymentID
	notes["razorpay_signature"] = in.Signature
	notes["external_token"] = in.ExternalToken
	notes["google_play_reported"] = true

	merged, err := json.Marshal(notes)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(merged), nil
}

func buildUpiIntentURL(orderID string, amount float64, itemID string) string {
	return fmt.Sprintf("upi://pay?pa=merchant@upi&pn=ScholarNotes&tr=%s&am=%g&cu=%s&tn=Premium_%s",
		orderID, amount, currency, itemID)
}
