package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	budgetrepo "github.com/xxz807/eduledger/backend/internal/budget/adapter/repo"
	budgetapi "github.com/xxz807/eduledger/backend/internal/budget/api"
	budgetservice "github.com/xxz807/eduledger/backend/internal/budget/service"
	inventoryrepo "github.com/xxz807/eduledger/backend/internal/inventory/adapter/repo"
	inventoryapi "github.com/xxz807/eduledger/backend/internal/inventory/api"
	inventoryservice "github.com/xxz807/eduledger/backend/internal/inventory/service"
	ledgerrepo "github.com/xxz807/eduledger/backend/internal/ledger/adapter/repo"
	ledgerapi "github.com/xxz807/eduledger/backend/internal/ledger/api"
	ledgerservice "github.com/xxz807/eduledger/backend/internal/ledger/service"
	"github.com/xxz807/eduledger/backend/internal/platform/database"
	"github.com/xxz807/eduledger/backend/internal/platform/logger"
	"github.com/xxz807/eduledger/backend/internal/platform/server"
	requisitionrepo "github.com/xxz807/eduledger/backend/internal/requisition/adapter/repo"
	requisitionapi "github.com/xxz807/eduledger/backend/internal/requisition/api"
	requisitionservice "github.com/xxz807/eduledger/backend/internal/requisition/service"
)

func main() {
	// 1. 加载配置（本地 .env 可覆盖环境变量）
	_ = godotenv.Load()

	viper.SetConfigFile("configs/config.yaml")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %s", err)
	}

	// 2. 初始化基础设施 (Infra)
	// Logger
	appLogger := logger.NewLogger(viper.GetString("server.mode"))
	// Database
	dsn := viper.GetString("database.dsn")
	maxIdleConns := viper.GetInt("database.max_idle_conns")
	maxOpenConns := viper.GetInt("database.max_open_conns")
	db := database.NewPostgresDB(dsn, maxIdleConns, maxOpenConns)
	if err := database.AutoMigrate(db); err != nil {
		appLogger.Fatal("Schema migration failed", zap.Error(err))
	}

	// 3. 依赖注入 (Wiring)
	// -- Finance Module --
	accountRepo := ledgerrepo.NewAccountRepo(db)
	txRepo := ledgerrepo.NewTransactionRepo(db)
	financeSvc := ledgerservice.NewFinanceService(db, accountRepo, txRepo, appLogger)
	financeHandler := ledgerapi.NewFinanceHandler(financeSvc)

	// -- Inventory Module --
	itemRepo := inventoryrepo.NewItemRepo(db)
	logRepo := inventoryrepo.NewLogRepo(db)
	transferRepo := inventoryrepo.NewTransferRepo(db)
	inventorySvc := inventoryservice.NewInventoryService(db, itemRepo, logRepo, transferRepo, appLogger)
	inventoryHandler := inventoryapi.NewInventoryHandler(inventorySvc)

	// -- Requisition Module --
	reqRepo := requisitionrepo.NewRequisitionRepo(db)
	queueRepo := requisitionrepo.NewQueueRepo(db)
	requisitionSvc := requisitionservice.NewRequisitionService(db, reqRepo, queueRepo, appLogger)
	requisitionHandler := requisitionapi.NewRequisitionHandler(requisitionSvc)

	// -- Budget Module --
	periodRepo := budgetrepo.NewPeriodRepo(db)
	limitRepo := budgetrepo.NewLimitRepo(db)
	budgetSvc := budgetservice.NewBudgetService(db, periodRepo, limitRepo, appLogger)
	budgetHandler := budgetapi.NewBudgetHandler(budgetSvc)

	// 4. 初始化 Server (Gateway)
	srv := server.NewServer(
		appLogger,
		server.Config{
			Port:        viper.GetString("server.port"),
			Mode:        viper.GetString("server.mode"),
			AuthEnabled: viper.GetBool("auth.enabled"),
			AuthSecret:  viper.GetString("auth.secret"),
		},
		financeHandler,
		inventoryHandler,
		requisitionHandler,
		budgetHandler,
	)

	// 5. 启动服务 + 优雅停机
	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server startup failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
