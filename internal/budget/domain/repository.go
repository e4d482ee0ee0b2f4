package domain

import (
	"context"

	"gorm.io/gorm"
)

// PeriodRepository 预算期仓储接口 (Port)
type PeriodRepository interface {
	// FindByID 根据ID查询预算期（含两棵限额树）
	FindByID(ctx context.Context, id int64) (*BudgetPeriod, error)

	// List 查询全部预算期
	List(ctx context.Context) ([]BudgetPeriod, error)

	// Create 新建预算期
	Create(ctx context.Context, tx *gorm.DB, p *BudgetPeriod) error

	// UpdateMeta 带乐观锁版本号更新名称/起止日期
	UpdateMeta(ctx context.Context, tx *gorm.DB, p *BudgetPeriod) error
}

// LimitRepository 分类限额仓储接口
type LimitRepository interface {
	// FindByCategory 查询某预算期某棵树下指定分类的限额
	FindByCategory(ctx context.Context, periodID int64, kind LimitKind, category string) (*CategoryLimit, error)

	// ListByPeriod 查询某预算期某棵树的全部限额
	ListByPeriod(ctx context.Context, periodID int64, kind LimitKind) ([]CategoryLimit, error)

	// Create 新建限额（含子分类行）
	Create(ctx context.Context, tx *gorm.DB, l *CategoryLimit) error

	// ReplaceSubcategories 整体替换限额的子分类行
	ReplaceSubcategories(ctx context.Context, tx *gorm.DB, limitID int64, subs []Subcategory) error

	// UpdateBaseAmount 更新平面金额
	UpdateBaseAmount(ctx context.Context, tx *gorm.DB, limitID int64, amount string) error

	// Delete 从预算期的树里整体移除限额（连带子分类行）
	// 只影响这棵树，不影响全局分类目录
	Delete(ctx context.Context, tx *gorm.DB, limitID int64) error
}
