package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRazorpayClient_CreateOrder_ConvertsToMinorUnits(t *testing.T) {
	var got createOrderRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(RemoteOrder{
			ID: "order_gw1", Amount: got.Amount, Currency: got.Currency, Receipt: got.Receipt, Status: "created",
		})
	}))
	defer srv.Close()

	c := NewRazorpayClientWithBaseURL("key_id", "key_secret", srv.URL)

	out, err := c.CreateOrder(context.Background(), CreateOrderInput{
		Amount:   49.5,
		Currency: "INR",
		Receipt:  "ord-1",
		Notes:    map[string]string{"itemId": "note_42"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "order_gw1", out.ID)
	//49.5ルピー → 4950パイサ
	assert.Equal(t, int64(4950), got.Amount)
	assert.Equal(t, "ord-1", got.Receipt)
}

func TestRazorpayClient_CreateOrder_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount exceeds maximum"}}`))
	}))
	defer srv.Close()

	c := NewRazorpayClientWithBaseURL("key_id", "key_secret", srv.URL)

	_, err := c.CreateOrder(context.Background(), CreateOrderInput{
		Amount: 49, Currency: "INR", Receipt: "ord-1",
	})

	var ge *GatewayError
	if assert.ErrorAs(t, err, &ge) {
		assert.Equal(t, "amount exceeds maximum", ge.Description)
	}
}

func TestRazorpayClient_CreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	c := NewRazorpayClient("key_id", "key_secret")

	_, err := c.CreateOrder(context.Background(), CreateOrderInput{
		Amount: 0, Currency: "INR", Receipt: "ord-1",
	})
	assert.Error(t, err)
}
