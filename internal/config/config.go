package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	JWTSecret string // authプロバイダのJWT署名シークレット（HS256検証用）

	RazorpayKeyID         string // Razorpay APIキーID（クライアントにも返す）
	RazorpayKeySecret     string // Razorpay APIシークレット
	RazorpayWebhookSecret string // webhook署名（HMAC-SHA256）検証用

	GoogleServiceAccountJSON string // Play請求報告用サービスアカウント（JSON本文）
	AndroidPackageName       string // Play Console側のパッケージ名

	AuthAdminURL   string // authプロバイダのadmin APIベースURL
	AuthServiceKey string // admin API用サービスキー
	StorageURL     string // ストレージAPIベースURL
	StorageBucket  string // アバター保存バケット

	FEURL string // フロントURL（CORSなどで使う）
}

// Loadは環境変数から設定を読み込む。必須が欠けていたらエラー。
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		AndroidPackageName:       os.Getenv("ANDROID_PACKAGE_NAME"),

		AuthAdminURL:   os.Getenv("AUTH_ADMIN_URL"),
		AuthServiceKey: os.Getenv("AUTH_SERVICE_KEY"),
		StorageURL:     os.Getenv("STORAGE_URL"),
		StorageBucket:  getenvDefault("STORAGE_BUCKET", "avatars"),

		FEURL: os.Getenv("FE_URL"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RazorpayKeyID == "" {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_ID is required")
	}
	if cfg.RazorpayKeySecret == "" {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}
	if cfg.RazorpayWebhookSecret == "" {
		return Config{}, fmt.Errorf("RAZORPAY_WEBHOOK_SECRET is required")
	}
	if cfg.GoogleServiceAccountJSON == "" {
		return Config{}, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is required")
	}
	if cfg.AndroidPackageName == "" {
		return Config{}, fmt.Errorf("ANDROID_PACKAGE_NAME is required")
	}
	if cfg.AuthAdminURL == "" {
		return Config{}, fmt.Errorf("AUTH_ADMIN_URL is required")
	}
	if cfg.AuthServiceKey == "" {
		return Config{}, fmt.Errorf("AUTH_SERVICE_KEY is required")
	}
	if cfg.StorageURL == "" {
		return Config{}, fmt.Errorf("STORAGE_URL is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenvDefault(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
