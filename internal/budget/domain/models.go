package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitKind 限额树类型：一个预算期拥有支出/收入两棵平行的限额树
type LimitKind string

const (
	KindExpense LimitKind = "expense"
	KindIncome  LimitKind = "income"
)

func (k LimitKind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

// BudgetPeriod 预算期实体
// 对应数据库表: budget_periods
type BudgetPeriod struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"uniqueIndex;type:varchar(100);not null"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	Version   int64     `gorm:"not null;default:1"` // 乐观锁
	CreatedAt time.Time
	UpdatedAt time.Time

	// 关联关系 (一对多，支出/收入两棵树混存，按 Kind 区分)
	Limits []CategoryLimit `gorm:"foreignKey:PeriodID"`
}

func (BudgetPeriod) TableName() string {
	return "budget_periods"
}

// CategoryLimit 分类限额实体
// 对应数据库表: budget_category_limits
// 不变量：要么是平面限额（BaseAmount 说了算），要么由子分类驱动
// （总额 = Σ子分类，BaseAmount 不参与）——两者绝不同时生效
type CategoryLimit struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	PeriodID   int64           `gorm:"not null;index:idx_period_kind_category,unique"`
	Kind       LimitKind       `gorm:"type:varchar(16);not null;index:idx_period_kind_category,unique"`
	Category   string          `gorm:"type:varchar(100);not null;index:idx_period_kind_category,unique"`
	BaseAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Subcategories []Subcategory `gorm:"foreignKey:LimitID"`
}

func (CategoryLimit) TableName() string {
	return "budget_category_limits"
}

// Subcategory 子分类金额行
// 对应数据库表: budget_subcategories
// 某个子分类没有记录时隐式按 0 计
type Subcategory struct {
	ID      int64           `gorm:"primaryKey;autoIncrement"`
	LimitID int64           `gorm:"not null;index"`
	Name    string          `gorm:"type:varchar(100);not null"`
	Amount  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
}

func (Subcategory) TableName() string {
	return "budget_subcategories"
}

// Total 限额总额：子分类驱动时求和，否则取平面金额
func (l *CategoryLimit) Total() decimal.Decimal {
	if len(l.Subcategories) == 0 {
		return l.BaseAmount
	}
	var sum decimal.Decimal
	for _, sub := range l.Subcategories {
		sum = sum.Add(sub.Amount)
	}
	return sum
}
