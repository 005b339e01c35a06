package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cakedelight/internal/config"
	"cakedelight/internal/handler"
	"cakedelight/internal/infra/db"
	"cakedelight/internal/infra/messaging"
	infraRepo "cakedelight/internal/infra/repository"
	"cakedelight/internal/logger"
	"cakedelight/internal/server"
	"cakedelight/internal/usecase"
	auth "cakedelight/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

// アクセストークンの有効期限
const accessTTL = 15 * time.Minute

type orderPublisher interface {
	usecase.EventPublisher
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Env: cfg.GoEnv, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//イベント送信（ブローカー未設定なら送らない）
	var publisher orderPublisher = messaging.NopPublisher{}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		publisher = messaging.NewKafkaPublisher(brokers, cfg.KafkaOrderTopic, log)
		log.Info("kafka publisher enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaOrderTopic))
	}
	defer func() { _ = publisher.Close() }()

	//usecaseに渡す部品
	idGen := auth.UUIDGenerator{}
	clock := auth.RealClock{}
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, accessTTL)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, idGen, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, idGen)
	orderUC := usecase.NewOrderUsecase(txm, publisher, idGen, log.Named("orders"))
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, log.Named("admin"))

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC),
		Product:      handler.NewProductHandler(productUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
	}
	e := server.New(cfg, h, userRepo, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, e, ":"+cfg.Port, log)
}
