package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/budget/domain"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

type PostgresPeriodRepo struct {
	db *gorm.DB
}

func NewPeriodRepo(db *gorm.DB) *PostgresPeriodRepo {
	return &PostgresPeriodRepo{db: db}
}

func (r *PostgresPeriodRepo) FindByID(ctx context.Context, id int64) (*domain.BudgetPeriod, error) {
	var period domain.BudgetPeriod
	err := r.db.WithContext(ctx).Preload("Limits.Subcategories").Preload("Limits").First(&period, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "budget period %d not found", id)
		}
		return nil, err
	}
	return &period, nil
}

func (r *PostgresPeriodRepo) List(ctx context.Context) ([]domain.BudgetPeriod, error) {
	var periods []domain.BudgetPeriod
	err := r.db.WithContext(ctx).Preload("Limits.Subcategories").Preload("Limits").
		Order("start_date desc").Find(&periods).Error
	return periods, err
}

func (r *PostgresPeriodRepo) Create(ctx context.Context, tx *gorm.DB, p *domain.BudgetPeriod) error {
	return tx.WithContext(ctx).Create(p).Error
}

// UpdateMeta 实现乐观锁更新
func (r *PostgresPeriodRepo) UpdateMeta(ctx context.Context, tx *gorm.DB, p *domain.BudgetPeriod) error {
	result := tx.WithContext(ctx).Model(&domain.BudgetPeriod{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"name":       p.Name,
			"start_date": p.StartDate,
			"end_date":   p.EndDate,
			"version":    gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "budget period %d modified concurrently", p.ID)
	}
	return nil
}

// ---------------------------------------------------------

type PostgresLimitRepo struct {
	db *gorm.DB
}

func NewLimitRepo(db *gorm.DB) *PostgresLimitRepo {
	return &PostgresLimitRepo{db: db}
}

func (r *PostgresLimitRepo) FindByCategory(ctx context.Context, periodID int64, kind domain.LimitKind, category string) (*domain.CategoryLimit, error) {
	var limit domain.CategoryLimit
	err := r.db.WithContext(ctx).Preload("Subcategories").
		Where("period_id = ? AND kind = ? AND category = ?", periodID, kind, category).
		First(&limit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound,
				"no %s limit for category %q in period %d", kind, category, periodID)
		}
		return nil, err
	}
	return &limit, nil
}

func (r *PostgresLimitRepo) ListByPeriod(ctx context.Context, periodID int64, kind domain.LimitKind) ([]domain.CategoryLimit, error) {
	var limits []domain.CategoryLimit
	err := r.db.WithContext(ctx).Preload("Subcategories").
		Where("period_id = ? AND kind = ?", periodID, kind).
		Order("category").Find(&limits).Error
	return limits, err
}

func (r *PostgresLimitRepo) Create(ctx context.Context, tx *gorm.DB, l *domain.CategoryLimit) error {
	// GORM 会自动处理 CategoryLimit -> Subcategories 的关联插入
	return tx.WithContext(ctx).Create(l).Error
}

func (r *PostgresLimitRepo) ReplaceSubcategories(ctx context.Context, tx *gorm.DB, limitID int64, subs []domain.Subcategory) error {
	if err := tx.WithContext(ctx).Where("limit_id = ?", limitID).Delete(&domain.Subcategory{}).Error; err != nil {
		return err
	}
	for i := range subs {
		subs[i].LimitID = limitID
		subs[i].ID = 0
	}
	if len(subs) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&subs).Error
}

func (r *PostgresLimitRepo) UpdateBaseAmount(ctx context.Context, tx *gorm.DB, limitID int64, amount string) error {
	result := tx.WithContext(ctx).Model(&domain.CategoryLimit{}).
		Where("id = ?", limitID).
		Update("base_amount", amount)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "budget limit %d not found", limitID)
	}
	return nil
}

func (r *PostgresLimitRepo) Delete(ctx context.Context, tx *gorm.DB, limitID int64) error {
	if err := tx.WithContext(ctx).Where("limit_id = ?", limitID).Delete(&domain.Subcategory{}).Error; err != nil {
		return err
	}
	result := tx.WithContext(ctx).Delete(&domain.CategoryLimit{}, limitID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "budget limit %d not found", limitID)
	}
	return nil
}
