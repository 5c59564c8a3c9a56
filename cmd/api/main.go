package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/gateway/paystack"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logger"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無くてもよい（本番は実環境変数を使う）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.CustomerProfile{},
		&model.JobSeekerProfile{},
		&model.Product{},
		&model.Order{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//外部ゲートウェイ
	gateway := paystack.NewHTTPClient(paystack.DefaultBaseURL, cfg.PaystackSecretKey, log)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(txManager, userRepo, cfg.JWTSecret)
	profileUC := usecase.NewProfileUsecase(userRepo, orderRepo)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, gateway, usecase.PaymentConfig{
		SecretKey: cfg.PaystackSecretKey,
		Currency:  cfg.PaystackCurrency,
		SiteURL:   cfg.SiteURL,
	}, log)
	productUC := usecase.NewProductUsecase(productRepo, auditRepo)
	adminUC := usecase.NewAdminUsecase(userRepo, orderRepo)

	//Handler生成
	e := server.New(cfg, log, server.Handlers{
		Auth:    handler.NewAuthHandler(authUC),
		Profile: handler.NewProfileHandler(profileUC),
		Payment: handler.NewPaymentHandler(paymentUC),
		Product: handler.NewProductHandler(productUC),
		Admin:   handler.NewAdminHandler(adminUC, productUC),
	})

	//Server起動
	addr := ":" + cfg.Port

	go func() {
		if err := e.Start(addr); err != nil {
			log.Info("server stopped", zap.Error(err))
		}
	}()

	//SIGINT/SIGTERMで止める
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
