package domain

import (
	"context"

	"gorm.io/gorm"
)

// RequisitionRepository 请购单仓储接口 (Port)
type RequisitionRepository interface {
	// FindByID 根据ID查询请购单（含行项目）
	FindByID(ctx context.Context, id int64) (*Requisition, error)

	// List 查询全部请购单
	List(ctx context.Context) ([]Requisition, error)

	// Create 保存请购主表和行项目 (在一个事务中)
	Create(ctx context.Context, tx *gorm.DB, r *Requisition) error

	// UpdateMeta 带乐观锁版本号更新标题/备注/账户
	UpdateMeta(ctx context.Context, tx *gorm.DB, r *Requisition) error

	// UpdateStatus 带乐观锁版本号推进状态；snapshot 非 nil 时一并写入 QueueSnapshot
	UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status RequisitionStatus, snapshot []byte, version int64) error

	// BumpVersion 带乐观锁推进主表版本号
	// 行项目/回收站变更必须在同一事务里调用它，让并发审批的旧版本写入失效
	BumpVersion(ctx context.Context, tx *gorm.DB, id, version int64) error

	// AddItem 追加行项目
	AddItem(ctx context.Context, tx *gorm.DB, item *RequisitionItem) error

	// DeleteItem 物理删除行项目（只能由 service 在移入回收站的同一事务里调用）
	DeleteItem(ctx context.Context, tx *gorm.DB, requisitionID, itemID int64) error

	// Delete 硬删除整张请购单及行项目
	Delete(ctx context.Context, tx *gorm.DB, id int64) error
}

// QueueRepository 回收站仓储接口
// 只追加：行项目从请购单移出后进这里，永不销毁
type QueueRepository interface {
	// Add 追加一条回收站记录
	Add(ctx context.Context, tx *gorm.DB, item *InQueueItem) error

	// ListByRequisition 查询某张请购单累计移出的行项目（按移出时间升序）
	ListByRequisition(ctx context.Context, requisitionID int64) ([]InQueueItem, error)

	// List 查询全局回收站
	List(ctx context.Context) ([]InQueueItem, error)

	// CountByRequisition 统计某张请购单的回收站记录数
	CountByRequisition(ctx context.Context, requisitionID int64) (int64, error)
}
