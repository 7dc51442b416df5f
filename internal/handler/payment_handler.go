package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

//middleware.AuthJWT が c.Set("user_id", string) した値を取り出す

func getUserIDFromContext(c echo.Context) (string, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return "", false
	}

	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

type PaymentHandler struct {
	uc            *usecase.PurchaseUsecase
	webhookSecret string
}

func NewPaymentHandler(uc *usecase.PurchaseUsecase, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{uc: uc, webhookSecret: webhookSecret}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payments")

	//webhookは認証ヘッダではなく署名検証
	g.POST("/webhook", h.webhook)

	authed := g.Group("")
	authed.Use(middleware.AuthJWT(cfg))
	authed.POST("/orders", h.createOrder)
	authed.POST("/confirm", h.confirm)
	authed.GET("/purchases", h.listPurchases)
}

type createOrderRequest struct {
	ItemID        string  `json:"itemId"`
	ItemType      string  `json:"itemType"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

func (h *PaymentHandler) createOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), userID, usecase.CreateOrderInput{
		ItemID:        req.ItemID,
		ItemType:      req.ItemType,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) listPurchases(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	items, err := h.uc.ListPurchases(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, items)
}

type webhookRequest struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	Success               bool   `json:"success"`
	ExternalToken         string `json:"externalTransactionToken"`
	PaymentID             string `json:"paymentId"`
}

func (h *PaymentHandler) webhook(c echo.Context) error {
	//署名はraw bodyに対して検証するので先に読む
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if !VerifyWebhookSignature(body, signature, h.webhookSecret) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if !req.Success {
		//失敗通知。pendingならfailedにして返す
		if err := h.uc.FailOrder(c.Request().Context(), req.MerchantTransactionID); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	}

	_, err = h.uc.Confirm(c.Request().Context(), usecase.Confirmation{
		OrderRef:      req.MerchantTransactionID,
		PaymentID:     req.PaymentID,
		Signature:     signature,
		ExternalToken: req.ExternalToken,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type confirmRequest struct {
	OrderID       string `json:"orderId"`
	PaymentID     string `json:"paymentId"`
	Signature     string `json:"signature"`
	ExternalToken string `json:"externalTransactionToken"`
}

func (h *PaymentHandler) confirm(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Confirm(c.Request().Context(), usecase.Confirmation{
		OrderRef:      req.OrderID,
		UserID:        userID,
		PaymentID:     req.PaymentID,
		Signature:     req.Signature,
		ExternalToken: req.ExternalToken,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// VerifyWebhookSignatureはraw bodyのHMAC-SHA256と署名ヘッダを比較する。
func VerifyWebhookSignature(body []byte, signature string, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
