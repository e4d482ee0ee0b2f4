package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	budgetdomain "github.com/xxz807/eduledger/backend/internal/budget/domain"
	inventorydomain "github.com/xxz807/eduledger/backend/internal/inventory/domain"
	ledgerdomain "github.com/xxz807/eduledger/backend/internal/ledger/domain"
	requisitiondomain "github.com/xxz807/eduledger/backend/internal/requisition/domain"
)

// NewPostgresDB 初始化数据库连接
// 在 DDD 中，它属于 Infrastructure 层
func NewPostgresDB(dsn string, maxIdleConns, maxOpenConns int) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// 开启 SQL 日志，方便开发时观察
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("❌ Failed to get sql.DB: %v", err)
	}

	// 连接池配置
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("✅ Database connection established")
	return db
}

// AutoMigrate 同步全部业务模型的表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ledgerdomain.Account{},
		&ledgerdomain.Transaction{},
		&inventorydomain.InventoryItem{},
		&inventorydomain.InventoryLog{},
		&inventorydomain.InventoryTransfer{},
		&inventorydomain.TransferItem{},
		&requisitiondomain.Requisition{},
		&requisitiondomain.RequisitionItem{},
		&requisitiondomain.InQueueItem{},
		&budgetdomain.BudgetPeriod{},
		&budgetdomain.CategoryLimit{},
		&budgetdomain.Subcategory{},
	)
}
