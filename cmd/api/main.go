package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/gateway"
	"app/internal/handler"
	"app/internal/identity"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/playbilling"
	"app/internal/server"
	"app/internal/storage"
	"app/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

// usecase.PaymentGatewayに合わせるアダプタ
type razorpayGateway struct {
	client *gateway.RazorpayClient
}

func (g *razorpayGateway) CreateRemoteOrder(ctx context.Context, amount float64, currency string, receipt string, notes map[string]string) (string, error) {
	remote, err := g.client.CreateOrder(ctx, gateway.CreateOrderInput{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return "", err
	}
	return remote.ID, nil
}

// usecase.TransactionReporterに合わせるアダプタ
type playReporter struct {
	reporter *playbilling.Reporter
}

func (r *playReporter) ReportTransaction(ctx context.Context, orderID string, sku string, amount float64, currency string, externalToken string) error {
	return r.reporter.Report(ctx, playbilling.ReportInput{
		OrderID:       orderID,
		SKU:           sku,
		Amount:        amount,
		Currency:      currency,
		ExternalToken: externalToken,
	})
}

func main() {
	//.envは無くても動く（本番は環境変数で渡す）
	_ = godotenv.Load("../.env")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Error("db connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := gormDB.AutoMigrate(
		&model.Order{},
		&model.Purchase{},
		&model.Profile{},
	); err != nil {
		logger.Error("db migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	//Repository（GORM実装）生成
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	purchaseRepo := infraRepo.NewPurchaseGormRepository(gormDB)
	profileRepo := infraRepo.NewProfileGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//外部コラボレータ
	rzp := gateway.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	reporter, err := playbilling.NewReporter(cfg.GoogleServiceAccountJSON, cfg.AndroidPackageName)
	if err != nil {
		logger.Error("reporter init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authAdmin := identity.NewAdminClient(cfg.AuthAdminURL, cfg.AuthServiceKey)
	blobs := storage.NewBlobClient(cfg.StorageURL, cfg.AuthServiceKey, cfg.StorageBucket)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	purchaseUC := usecase.NewPurchaseUsecase(
		txManager,
		orderRepo,
		purchaseRepo,
		profileRepo,
		&razorpayGateway{client: rzp},
		&playReporter{reporter: reporter},
		idGen,
		clock,
		cfg.RazorpayKeyID,
		logger,
	)
	accountUC := usecase.NewAccountUsecase(
		orderRepo,
		purchaseRepo,
		profileRepo,
		authAdmin,
		blobs,
		logger,
	)

	//Handler生成
	paymentH := handler.NewPaymentHandler(purchaseUC, cfg.RazorpayWebhookSecret)
	accountH := handler.NewAccountHandler(accountUC)

	//Server起動
	addr := ":" + cfg.Port

	e := server.New(cfg, paymentH, accountH)

	logger.Info("starting server", slog.String("addr", addr))
	if err := server.Start(e, addr); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
