package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// BlobClientはストレージAPIのlist/removeだけの薄いクライアント。
// アカウント削除時のアバター掃除に使う（best-effort）。
type BlobClient struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

func NewBlobClient(baseURL string, serviceKey string, bucket string) *BlobClient {
	return &BlobClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type listRequest struct {
	Prefix string `json:"prefix"`
}

type listedObject struct {
	Name string `json:"name"`
}

// Listはprefix配下のオブジェクト名を返す。
func (c *BlobClient) List(ctx context.Context, prefix string) ([]string, error) {
	payload, err := json.Marshal(listRequest{Prefix: prefix})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/object/list/%s", c.baseURL, c.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list failed: status %d", res.StatusCode)
	}

	var objects []listedObject
	if err := json.NewDecoder(res.Body).Decode(&objects); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, prefix+"/"+o.Name)
	}
	return names, nil
}

type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

// Removeは指定パスのオブジェクトをまとめて削除する。
func (c *BlobClient) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	payload, err := json.Marshal(removeRequest{Prefixes: paths})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/object/%s", c.baseURL, c.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("remove failed: status %d", res.StatusCode)
	}

	return nil
}
