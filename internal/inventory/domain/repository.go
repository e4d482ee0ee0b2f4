package domain

import (
	"context"

	"gorm.io/gorm"
)

// ItemRepository 物品仓储接口 (Port)
type ItemRepository interface {
	// FindByID 根据ID查询物品
	FindByID(ctx context.Context, id int64) (*InventoryItem, error)

	// FindByIDTx 在事务内读取（冲正过程中要看到同事务的改动；并发交给乐观锁）
	FindByIDTx(ctx context.Context, tx *gorm.DB, id int64) (*InventoryItem, error)

	// List 查询全部物品
	List(ctx context.Context) ([]InventoryItem, error)

	// Create 新建物品
	Create(ctx context.Context, tx *gorm.DB, item *InventoryItem) error

	// UpdateQuantity 带乐观锁版本号调整基线存量
	UpdateQuantity(ctx context.Context, tx *gorm.DB, id int64, newQuantity string, version int64) error

	// UpdateMeta 带乐观锁版本号更新名称/分组/最低库存/单位
	UpdateMeta(ctx context.Context, tx *gorm.DB, item *InventoryItem) error
}

// LogRepository 库存流水仓储接口
// 只追加：没有 Update/Delete，"当前状态"永远是历史的函数
type LogRepository interface {
	// Append 追加一条流水
	Append(ctx context.Context, tx *gorm.DB, log *InventoryLog) error

	// ListByItem 按物品查询全部流水（按时间升序）
	ListByItem(ctx context.Context, itemID int64) ([]InventoryLog, error)

	// ListByItemName 按物品名称查询（"需求清单"按名称对齐学生携带数据）
	ListByItemName(ctx context.Context, name string) ([]InventoryLog, error)
}

// TransferRepository 调拨单仓储接口
type TransferRepository interface {
	// FindByID 根据ID查询调拨单（含明细行）
	FindByID(ctx context.Context, id int64) (*InventoryTransfer, error)

	// List 查询全部调拨单
	List(ctx context.Context) ([]InventoryTransfer, error)

	// Create 保存调拨主表和明细 (在一个事务中)
	Create(ctx context.Context, tx *gorm.DB, t *InventoryTransfer) error

	// UpdateStatus 带乐观锁版本号推进状态机
	// 版本不匹配返回 Conflict —— 双重拒绝靠它和转换表双保险
	UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status TransferStatus, reason string, version int64) error
}
