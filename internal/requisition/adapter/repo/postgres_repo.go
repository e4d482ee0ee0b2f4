package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
	"github.com/xxz807/eduledger/backend/internal/requisition/domain"
)

type PostgresRequisitionRepo struct {
	db *gorm.DB
}

func NewRequisitionRepo(db *gorm.DB) *PostgresRequisitionRepo {
	return &PostgresRequisitionRepo{db: db}
}

func (r *PostgresRequisitionRepo) FindByID(ctx context.Context, id int64) (*domain.Requisition, error) {
	var req domain.Requisition
	err := r.db.WithContext(ctx).Preload("Items").First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "requisition %d not found", id)
		}
		return nil, err
	}
	return &req, nil
}

func (r *PostgresRequisitionRepo) List(ctx context.Context) ([]domain.Requisition, error) {
	var reqs []domain.Requisition
	err := r.db.WithContext(ctx).Preload("Items").Order("date desc").Find(&reqs).Error
	return reqs, err
}

func (r *PostgresRequisitionRepo) Create(ctx context.Context, tx *gorm.DB, req *domain.Requisition) error {
	// GORM 会自动处理 Requisition -> Items 的关联插入
	return tx.WithContext(ctx).Create(req).Error
}

// UpdateMeta 实现乐观锁更新（标题/账户/备注）
func (r *PostgresRequisitionRepo) UpdateMeta(ctx context.Context, tx *gorm.DB, req *domain.Requisition) error {
	result := tx.WithContext(ctx).Model(&domain.Requisition{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Updates(map[string]interface{}{
			"title":   req.Title,
			"account": req.Account,
			"notes":   req.Notes,
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "requisition %d modified concurrently", req.ID)
	}
	return nil
}

// UpdateStatus 带乐观锁的状态推进；snapshot 非 nil 时一并冻结 QueueSnapshot
// 状态和快照是同一条 UPDATE：不存在"状态翻了快照没写"的中间态
func (r *PostgresRequisitionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status domain.RequisitionStatus, snapshot []byte, version int64) error {
	fields := map[string]interface{}{
		"status":  status,
		"version": gorm.Expr("version + 1"),
	}
	if snapshot != nil {
		fields["queue_snapshot"] = snapshot
	}

	result := tx.WithContext(ctx).Model(&domain.Requisition{}).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "requisition %d modified concurrently", id)
	}
	return nil
}

// BumpVersion 只推进版本号，不改任何业务列
// 行项目进出虽然不写主表字段，但必须让主表版本失效——
// 否则审批在读和写之间发生的行项目变更检测不出来
func (r *PostgresRequisitionRepo) BumpVersion(ctx context.Context, tx *gorm.DB, id, version int64) error {
	result := tx.WithContext(ctx).Model(&domain.Requisition{}).
		Where("id = ? AND version = ?", id, version).
		Update("version", gorm.Expr("version + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "requisition %d modified concurrently", id)
	}
	return nil
}

func (r *PostgresRequisitionRepo) AddItem(ctx context.Context, tx *gorm.DB, item *domain.RequisitionItem) error {
	return tx.WithContext(ctx).Create(item).Error
}

func (r *PostgresRequisitionRepo) DeleteItem(ctx context.Context, tx *gorm.DB, requisitionID, itemID int64) error {
	result := tx.WithContext(ctx).
		Where("requisition_id = ?", requisitionID).
		Delete(&domain.RequisitionItem{}, itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "item %d not found in requisition %d", itemID, requisitionID)
	}
	return nil
}

func (r *PostgresRequisitionRepo) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if err := tx.WithContext(ctx).Where("requisition_id = ?", id).Delete(&domain.RequisitionItem{}).Error; err != nil {
		return err
	}
	result := tx.WithContext(ctx).Delete(&domain.Requisition{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "requisition %d not found", id)
	}
	return nil
}

// ---------------------------------------------------------

type PostgresQueueRepo struct {
	db *gorm.DB
}

func NewQueueRepo(db *gorm.DB) *PostgresQueueRepo {
	return &PostgresQueueRepo{db: db}
}

// Add 只追加。回收站记录永不销毁
func (r *PostgresQueueRepo) Add(ctx context.Context, tx *gorm.DB, item *domain.InQueueItem) error {
	return tx.WithContext(ctx).Create(item).Error
}

func (r *PostgresQueueRepo) ListByRequisition(ctx context.Context, requisitionID int64) ([]domain.InQueueItem, error) {
	var items []domain.InQueueItem
	err := r.db.WithContext(ctx).
		Where("requisition_id = ?", requisitionID).
		Order("date_removed, id").Find(&items).Error
	return items, err
}

func (r *PostgresQueueRepo) List(ctx context.Context) ([]domain.InQueueItem, error) {
	var items []domain.InQueueItem
	err := r.db.WithContext(ctx).Order("date_removed desc").Find(&items).Error
	return items, err
}

func (r *PostgresQueueRepo) CountByRequisition(ctx context.Context, requisitionID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.InQueueItem{}).
		Where("requisition_id = ?", requisitionID).
		Count(&count).Error
	return count, err
}
