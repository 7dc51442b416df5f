package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// ゲートウェイがエラー形のレスポンスを返したとき
type GatewayError struct {
	Description string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("razorpay error: %s", e.Description)
}

// RazorpayClientは注文作成APIの薄いクライアント。
type RazorpayClient struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayClient(keyID string, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// テスト用にエンドポイントを差し替える
func NewRazorpayClientWithBaseURL(keyID string, keySecret string, baseURL string) *RazorpayClient {
	c := NewRazorpayClient(keyID, keySecret)
	c.baseURL = baseURL
	return c
}

type CreateOrderInput struct {
	Amount   float64 // 主要通貨単位（ルピー）
	Currency string
	Receipt  string // こちら側のorder id
	Notes    map[string]string
}

type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type errorBody struct {
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrderはRazorpay側に注文を作る。金額はpaise（×100）に変換して送る。
func (c *RazorpayClient) CreateOrder(ctx context.Context, in CreateOrderInput) (RemoteOrder, error) {
	if in.Amount <= 0 {
		return RemoteOrder{}, errors.New("amount must be positive")
	}

	reqBody := createOrderRequest{
		Amount:   int64(math.Round(in.Amount * 100)),
		Currency: in.Currency,
		Receipt:  in.Receipt,
		Notes:    in.Notes,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return RemoteOrder{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return RemoteOrder{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	res, err := c.client.Do(req)
	if err != nil {
		return RemoteOrder{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return RemoteOrder{}, err
	}

	//エラー形のbodyはステータスに関係なくGatewayError扱い
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != nil {
		return RemoteOrder{}, &GatewayError{Description: eb.Error.Description}
	}
	if res.StatusCode != http.StatusOK {
		return RemoteOrder{}, &GatewayError{Description: fmt.Sprintf("unexpected status %d", res.StatusCode)}
	}

	var out RemoteOrder
	if err := json.Unmarshal(body, &out); err != nil {
		return RemoteOrder{}, err
	}
	if out.ID == "" {
		return RemoteOrder{}, &GatewayError{Description: "missing order id in response"}
	}

	return out, nil
}
