package playbilling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	publisherScope      = "https://www.googleapis.com/auth/androidpublisher"
	defaultPublisherURL = "https://androidpublisher.googleapis.com"
	assertionTTL        = time.Hour
)

// サービスアカウントJSONのうち使う項目だけ
type serviceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// Reporterは外部決済トランザクションをGoogle Playへ報告する。
// （代替請求の手数料コンプライアンス用）
type Reporter struct {
	account      serviceAccount
	packageName  string
	publisherURL string
	client       *http.Client
}

func NewReporter(serviceAccountJSON string, packageName string) (*Reporter, error) {
	var sa serviceAccount
	if err := json.Unmarshal([]byte(serviceAccountJSON), &sa); err != nil {
		return nil, fmt.Errorf("invalid service account json: %w", err)
	}
	if sa.PrivateKey == "" || sa.ClientEmail == "" || sa.TokenURI == "" {
		return nil, fmt.Errorf("service account json missing required fields")
	}

	return &Reporter{
		account:      sa,
		packageName:  packageName,
		publisherURL: defaultPublisherURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// テスト用にエンドポイントを差し替える
func NewReporterWithURLs(serviceAccountJSON string, packageName string, publisherURL string, tokenURI string) (*Reporter, error) {
	r, err := NewReporter(serviceAccountJSON, packageName)
	if err != nil {
		return nil, err
	}
	r.publisherURL = publisherURL
	if tokenURI != "" {
		r.account.TokenURI = tokenURI
	}
	return r, nil
}

type ReportInput struct {
	OrderID       string
	SKU           string
	Amount        float64
	Currency      string
	ExternalToken string
}

type externalTransaction struct {
	TransactionID   string          `json:"transactionId"`
	UserTaxAddress  userTaxAddress  `json:"userTaxAddress"`
	TransactionTime string          `json:"transactionTime"`
	OneTimePurchase oneTimePurchase `json:"oneTimePurchase"`
	ExternalToken   string          `json:"externalTransactionToken"`
}

type userTaxAddress struct {
	RegionCode string `json:"regionCode"`
}

type oneTimePurchase struct {
	SKU   string `json:"sku"`
	Price price  `json:"price"`
}

type price struct {
	PriceMicros string `json:"priceMicros"`
	Currency    string `json:"currency"`
}

// Reportは外部トランザクション1件を報告する。失敗は呼び出し側でログして握りつぶす前提。
func (r *Reporter) Report(ctx context.Context, in ReportInput) error {
	token, err := r.fetchAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("token acquisition failed: %w", err)
	}

	body := externalTransaction{
		TransactionID:   in.OrderID,
		UserTaxAddress:  userTaxAddress{RegionCode: "IN"},
		TransactionTime: time.Now().UTC().Format(time.RFC3339),
		OneTimePurchase: oneTimePurchase{
			SKU: in.SKU,
			Price: price{
				PriceMicros: fmt.Sprintf("%d", int64(in.Amount*1_000_000)),
				Currency:    in.Currency,
			},
		},
		ExternalToken: in.ExternalToken,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/androidpublisher/v3/applications/%s/externalTransactions",
		r.publisherURL, r.packageName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("reporting failed: status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}

// RS256署名のassertionをtoken endpointでaccess tokenに交換する
func (r *Reporter) fetchAccessToken(ctx context.Context) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(r.account.PrivateKey))
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   r.account.ClientEmail,
		"sub":   r.account.ClientEmail,
		"aud":   r.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
		"scope": publisherScope,
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.account.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", res.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	return out.AccessToken, nil
}
