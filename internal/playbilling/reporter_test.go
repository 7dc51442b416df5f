package playbilling

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// テスト用サービスアカウントJSONを作る
func testServiceAccountJSON(t *testing.T, tokenURI string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	assert.NoError(t, err)

	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	sa := map[string]string{
		"client_email": "svc@example.iam.gserviceaccount.com",
		"private_key":  string(pemKey),
		"token_uri":    tokenURI,
	}
	b, err := json.Marshal(sa)
	assert.NoError(t, err)
	return string(b)
}

func TestReporter_Report_Success(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		//assertionはRS256署名の3パートJWT
		assert.Equal(t, 3, len(strings.Split(r.Form.Get("assertion"), ".")))

		json.NewEncoder(w).Encode(map[string]string{"access_token": "at_test"})
	}))
	defer tokenSrv.Close()

	var got externalTransaction
	pubSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at_test", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Path, "/applications/com.example.app/externalTransactions")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer pubSrv.Close()

	r, err := NewReporterWithURLs(
		testServiceAccountJSON(t, tokenSrv.URL),
		"com.example.app",
		pubSrv.URL,
		tokenSrv.URL,
	)
	assert.NoError(t, err)

	err = r.Report(context.Background(), ReportInput{
		OrderID:       "ord-1",
		SKU:           "note_42",
		Amount:        49,
		Currency:      "INR",
		ExternalToken: "tok_xyz",
	})

	assert.NoError(t, err)
	assert.Equal(t, "ord-1", got.TransactionID)
	assert.Equal(t, "49000000", got.OneTimePurchase.Price.PriceMicros)
	assert.Equal(t, "INR", got.OneTimePurchase.Price.Currency)
	assert.Equal(t, "tok_xyz", got.ExternalToken)
}

func TestReporter_Report_TokenEndpointFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer tokenSrv.Close()

	r, err := NewReporterWithURLs(
		testServiceAccountJSON(t, tokenSrv.URL),
		"com.example.app",
		"http://unused.invalid",
		tokenSrv.URL,
	)
	assert.NoError(t, err)

	err = r.Report(context.Background(), ReportInput{OrderID: "ord-1", Amount: 49, Currency: "INR"})
	assertContains(t, err, "token acquisition failed")
}

func TestReporter_Report_PublisherFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "at_test"})
	}))
	defer tokenSrv.Close()

	pubSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"message":"duplicate transaction"}}`))
	}))
	defer pubSrv.Close()

	r, err := NewReporterWithURLs(
		testServiceAccountJSON(t, tokenSrv.URL),
		"com.example.app",
		pubSrv.URL,
		tokenSrv.URL,
	)
	assert.NoError(t, err)

	err = r.Report(context.Background(), ReportInput{OrderID: "ord-1", Amount: 49, Currency: "INR"})
	assertContains(t, err, "reporting failed")
}

func TestNewReporter_RejectsInvalidJSON(t *testing.T) {
	_, err := NewReporter("not json", "com.example.app")
	assert.Error(t, err)

	_, err = NewReporter(`{"client_email":"a@b"}`, "com.example.app")
	assert.Error(t, err)
}

func assertContains(t *testing.T, err error, want string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), want)
	}
}
