package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/ledger/domain"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

type PostgresAccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "account %d not found", id)
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepo) FindByName(ctx context.Context, name string) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "account %q not found", name)
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := r.db.WithContext(ctx).Order("name").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *PostgresAccountRepo) Create(ctx context.Context, tx *gorm.DB, acc *domain.Account) error {
	return tx.WithContext(ctx).Create(acc).Error
}

// Update 实现乐观锁更新
// SQL: UPDATE accounts SET name=?, "group"=?, version=version+1 WHERE id=? AND version=?
func (r *PostgresAccountRepo) Update(ctx context.Context, tx *gorm.DB, acc *domain.Account) error {
	// 注意：必须使用传入的 tx (事务会话)，而不是 r.db
	result := tx.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(map[string]interface{}{
			"name":    acc.Name,
			"group":   acc.Group,
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	// 关键点：如果没有行被更新，说明 version 不匹配（被别人改过了）
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "account %d modified concurrently", acc.ID)
	}

	return nil
}

func (r *PostgresAccountRepo) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	result := tx.WithContext(ctx).Delete(&domain.Account{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "account %d not found", id)
	}
	return nil
}

// ---------------------------------------------------------

type PostgresTransactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{db: db}
}

func (r *PostgresTransactionRepo) FindByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "transaction %d not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTransactionRepo) ListActive(ctx context.Context) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.WithContext(ctx).Where("soft_deleted = ?", false).Order("date").Find(&txns).Error
	return txns, err
}

func (r *PostgresTransactionRepo) ListActiveByMethod(ctx context.Context, method string) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.WithContext(ctx).
		Where("soft_deleted = ? AND method = ?", false, method).
		Order("date").Find(&txns).Error
	return txns, err
}

func (r *PostgresTransactionRepo) ListDeleted(ctx context.Context) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.WithContext(ctx).Where("soft_deleted = ?", true).Order("deleted_date desc").Find(&txns).Error
	return txns, err
}

func (r *PostgresTransactionRepo) CountActiveByMethod(ctx context.Context, tx *gorm.DB, method string) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&domain.Transaction{}).
		Where("soft_deleted = ? AND method = ?", false, method).
		Count(&count).Error
	return count, err
}

func (r *PostgresTransactionRepo) Create(ctx context.Context, tx *gorm.DB, t *domain.Transaction) error {
	return tx.WithContext(ctx).Create(t).Error
}

// Update 整行覆盖写，流水有意不做版本乐观锁：
// 更正是低频的人工操作，余额永远基于全量历史重算，
// 后写覆盖先写不会让任何派生状态失真
func (r *PostgresTransactionRepo) Update(ctx context.Context, tx *gorm.DB, t *domain.Transaction) error {
	return tx.WithContext(ctx).Save(t).Error
}
