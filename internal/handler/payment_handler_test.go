package handler_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func sign(body string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"merchantTransactionId":"ord-1","success":true}`)
	secret := "whsec_test"

	valid := sign(string(body), secret)
	assert.True(t, handler.VerifyWebhookSignature(body, valid, secret))

	//署名違い・改ざん・空は全部拒否
	assert.False(t, handler.VerifyWebhookSignature(body, sign(string(body), "other"), secret))
	assert.False(t, handler.VerifyWebhookSignature([]byte(`{"tampered":true}`), valid, secret))
	assert.False(t, handler.VerifyWebhookSignature(body, "", secret))
	assert.False(t, handler.VerifyWebhookSignature(body, valid, ""))
}

func TestPaymentHandler_Webhook_RejectsInvalidSignature(t *testing.T) {
	//署名で弾かれるのでusecaseには到達しない
	h := handler.NewPaymentHandler(nil, "whsec_test")

	e := echo.New()
	h.RegisterRoutes(e, config.Config{JWTSecret: "test_secret"})

	body := `{"merchantTransactionId":"ord-1","success":true}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "deadbeef")
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid signature")
}

func TestPaymentHandler_Webhook_RejectsMissingSignature(t *testing.T) {
	h := handler.NewPaymentHandler(nil, "whsec_test")

	e := echo.New()
	h.RegisterRoutes(e, config.Config{JWTSecret: "test_secret"})

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandler_CreateOrder_RequiresAuth(t *testing.T) {
	h := handler.NewPaymentHandler(nil, "whsec_test")

	e := echo.New()
	h.RegisterRoutes(e, config.Config{JWTSecret: "test_secret"})

	req := httptest.NewRequest(http.MethodPost, "/payments/orders", strings.NewReader(`{"itemId":"note_42","itemType":"note","amount":49}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
