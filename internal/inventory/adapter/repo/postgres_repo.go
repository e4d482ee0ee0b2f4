package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/inventory/domain"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

type PostgresItemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

func (r *PostgresItemRepo) FindByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "inventory item %d not found", id)
		}
		return nil, err
	}
	return &item, nil
}

// FindByIDTx 事务内读取（能看到同事务里未提交的改动）
// 注意：这里不做 Select For Update，并发修改交给乐观锁检测
func (r *PostgresItemRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := tx.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "inventory item %d not found", id)
		}
		return nil, err
	}
	return &item, nil
}

func (r *PostgresItemRepo) List(ctx context.Context) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	if err := r.db.WithContext(ctx).Order("name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresItemRepo) Create(ctx context.Context, tx *gorm.DB, item *domain.InventoryItem) error {
	return tx.WithContext(ctx).Create(item).Error
}

// UpdateQuantity 实现乐观锁更新
// SQL: UPDATE items SET quantity = ?, version = version + 1 WHERE id = ? AND version = ?
func (r *PostgresItemRepo) UpdateQuantity(ctx context.Context, tx *gorm.DB, id int64, newQuantity string, version int64) error {
	result := tx.WithContext(ctx).Model(&domain.InventoryItem{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"quantity": newQuantity,
			"version":  gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	// 关键点：如果没有行被更新，说明 version 不匹配（被别人改过了）
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "inventory item %d modified concurrently", id)
	}

	return nil
}

func (r *PostgresItemRepo) UpdateMeta(ctx context.Context, tx *gorm.DB, item *domain.InventoryItem) error {
	result := tx.WithContext(ctx).Model(&domain.InventoryItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"name":      item.Name,
			"group_id":  item.GroupID,
			"min_stock": item.MinStock,
			"units":     item.Units,
			"version":   gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "inventory item %d modified concurrently", item.ID)
	}
	return nil
}

// ---------------------------------------------------------

type PostgresLogRepo struct {
	db *gorm.DB
}

func NewLogRepo(db *gorm.DB) *PostgresLogRepo {
	return &PostgresLogRepo{db: db}
}

// Append 只追加。这个仓储故意不提供 Update/Delete
func (r *PostgresLogRepo) Append(ctx context.Context, tx *gorm.DB, log *domain.InventoryLog) error {
	return tx.WithContext(ctx).Create(log).Error
}

func (r *PostgresLogRepo) ListByItem(ctx context.Context, itemID int64) ([]domain.InventoryLog, error) {
	var logs []domain.InventoryLog
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("date, id").Find(&logs).Error
	return logs, err
}

func (r *PostgresLogRepo) ListByItemName(ctx context.Context, name string) ([]domain.InventoryLog, error) {
	var logs []domain.InventoryLog
	err := r.db.WithContext(ctx).Where("item_name = ?", name).Order("date, id").Find(&logs).Error
	return logs, err
}

// ---------------------------------------------------------

type PostgresTransferRepo struct {
	db *gorm.DB
}

func NewTransferRepo(db *gorm.DB) *PostgresTransferRepo {
	return &PostgresTransferRepo{db: db}
}

func (r *PostgresTransferRepo) FindByID(ctx context.Context, id int64) (*domain.InventoryTransfer, error) {
	var t domain.InventoryTransfer
	err := r.db.WithContext(ctx).Preload("Items").First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "transfer %d not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTransferRepo) List(ctx context.Context) ([]domain.InventoryTransfer, error) {
	var transfers []domain.InventoryTransfer
	err := r.db.WithContext(ctx).Preload("Items").Order("date desc").Find(&transfers).Error
	return transfers, err
}

func (r *PostgresTransferRepo) Create(ctx context.Context, tx *gorm.DB, t *domain.InventoryTransfer) error {
	// GORM 会自动处理 Transfer -> Items 的关联插入
	return tx.WithContext(ctx).Create(t).Error
}

// UpdateStatus 带乐观锁的状态推进
func (r *PostgresTransferRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status domain.TransferStatus, reason string, version int64) error {
	result := tx.WithContext(ctx).Model(&domain.InventoryTransfer{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"status":           status,
			"rejection_reason": reason,
			"version":          gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "transfer %d modified concurrently", id)
	}
	return nil
}
