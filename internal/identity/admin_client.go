package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdminClientはauthプロバイダのadmin APIを叩く。
// 使うのはユーザー削除だけ（検証はmiddlewareでJWTをローカル検証する）。
type AdminClient struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewAdminClient(baseURL string, serviceKey string) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// DeleteUserはauthユーザー本体を削除する。失敗したら呼び出し元の操作ごと失敗。
func (c *AdminClient) DeleteUser(ctx context.Context, userID string) error {
	endpoint := fmt.Sprintf("%s/admin/users/%s", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("auth deletion failed: status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}
