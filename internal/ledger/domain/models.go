package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 资金账户实体
// 对应数据库表: finance_accounts
// OpeningBalance 只是基线，当前余额永远由流水折算得出（见 service.ResolveAccountBalance）
type Account struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	Name           string          `gorm:"uniqueIndex;type:varchar(100);not null"`
	Group          string          `gorm:"type:varchar(100)"`
	Type           AccountType     `gorm:"type:varchar(16);not null"`
	Currency       string          `gorm:"type:char(3);default:'BDT';not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Version        int64           `gorm:"not null;default:1"` // 乐观锁
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定表名
func (Account) TableName() string {
	return "finance_accounts"
}

// Transaction 总账流水实体
// 对应数据库表: finance_transactions
// 只追加不改写；删除走软删除（SoftDeleted 置位），可随时恢复
type Transaction struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	Type         TransactionType `gorm:"type:varchar(16);not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Date         time.Time       `gorm:"not null;index"`
	Method       string          `gorm:"type:varchar(100);not null;index"` // 账户名称
	Category     string          `gorm:"type:varchar(100)"`
	IsFlagged    bool            `gorm:"not null;default:false"`
	RiskLevel    RiskLevel       `gorm:"type:varchar(16);default:'low'"`
	SoftDeleted  bool            `gorm:"not null;default:false;index"`
	DeleteReason string          `gorm:"type:text"`
	DeletedDate  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Transaction) TableName() string {
	return "finance_transactions"
}
