package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/budget/domain"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

// LimitRequest 新建/调整限额的 DTO (Input)
type LimitRequest struct {
	PeriodID      int64
	Kind          string // expense | income
	Category      string
	BaseAmount    string // 传字符串防止精度丢失
	Subcategories []SubcategoryRequest
}

type SubcategoryRequest struct {
	Name   string
	Amount string
}

// BudgetService 预算限额服务
type BudgetService struct {
	db         *gorm.DB // 用于开启事务
	periodRepo domain.PeriodRepository
	limitRepo  domain.LimitRepository
	logger     *zap.Logger
}

func NewBudgetService(db *gorm.DB, periodRepo domain.PeriodRepository, limitRepo domain.LimitRepository, logger *zap.Logger) *BudgetService {
	return &BudgetService{
		db:         db,
		periodRepo: periodRepo,
		limitRepo:  limitRepo,
		logger:     logger,
	}
}

// CreatePeriod 新建预算期
func (s *BudgetService) CreatePeriod(ctx context.Context, name string, start, end time.Time) (*domain.BudgetPeriod, error) {
	if name == "" {
		return nil, apperr.New(apperr.Validation, "period name is required")
	}
	if !end.After(start) {
		return nil, apperr.New(apperr.Validation, "period end must be after start")
	}

	entity := &domain.BudgetPeriod{Name: name, StartDate: start, EndDate: end, Version: 1}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.periodRepo.Create(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// UpdateBudgetPeriod 更新预算期元数据，乐观锁保护
func (s *BudgetService) UpdateBudgetPeriod(ctx context.Context, p *domain.BudgetPeriod) (*domain.BudgetPeriod, error) {
	if _, err := s.periodRepo.FindByID(ctx, p.ID); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.periodRepo.UpdateMeta(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.periodRepo.FindByID(ctx, p.ID)
}

// parseLimit 解析并校验限额请求
func parseLimit(req LimitRequest) (*domain.CategoryLimit, error) {
	kind := domain.LimitKind(req.Kind)
	if !kind.IsValid() {
		return nil, apperr.New(apperr.Validation, "invalid limit kind: %s", req.Kind)
	}
	if req.Category == "" {
		return nil, apperr.New(apperr.Validation, "category is required")
	}

	limit := &domain.CategoryLimit{
		PeriodID: req.PeriodID,
		Kind:     kind,
		Category: req.Category,
	}

	if req.BaseAmount != "" {
		amt, err := decimal.NewFromString(req.BaseAmount)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid base amount: %s", req.BaseAmount)
		}
		if amt.IsNegative() {
			return nil, apperr.New(apperr.Validation, "base amount must not be negative")
		}
		limit.BaseAmount = amt
	}

	for _, sub := range req.Subcategories {
		if sub.Name == "" {
			return nil, apperr.New(apperr.Validation, "subcategory name is required")
		}
		amt, err := decimal.NewFromString(sub.Amount)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid subcategory amount: %s", sub.Amount)
		}
		if amt.IsNegative() {
			return nil, apperr.New(apperr.Validation, "subcategory amount must not be negative")
		}
		limit.Subcategories = append(limit.Subcategories, domain.Subcategory{Name: sub.Name, Amount: amt})
	}

	return limit, nil
}

// AddLimit 向预算期的限额树添加分类
// 同一预算期同一棵树里重复添加同一分类是 no-op：直接返回已有限额，不报错也不重建
func (s *BudgetService) AddLimit(ctx context.Context, req LimitRequest) (*domain.CategoryLimit, error) {
	limit, err := parseLimit(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.periodRepo.FindByID(ctx, req.PeriodID); err != nil {
		return nil, err
	}

	existing, err := s.limitRepo.FindByCategory(ctx, req.PeriodID, limit.Kind, limit.Category)
	if err != nil && !apperr.Is(err, apperr.NotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.limitRepo.Create(ctx, tx, limit)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("budget limit added",
		zap.Int64("period_id", req.PeriodID),
		zap.String("kind", string(limit.Kind)),
		zap.String("category", limit.Category))
	return limit, nil
}

// UpdateLimit 调整限额：有子分类传入时整体替换（转为子分类驱动），
// 否则只更新平面金额并清掉旧的子分类行——保证两种模式绝不同时生效
func (s *BudgetService) UpdateLimit(ctx context.Context, limitID int64, req LimitRequest) (*domain.CategoryLimit, error) {
	parsed, err := parseLimit(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.limitRepo.FindByCategory(ctx, req.PeriodID, parsed.Kind, parsed.Category)
	if err != nil {
		return nil, err
	}
	if existing.ID != limitID {
		return nil, apperr.New(apperr.Validation, "limit %d does not match category %q", limitID, parsed.Category)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.limitRepo.ReplaceSubcategories(ctx, tx, limitID, parsed.Subcategories); err != nil {
			return err
		}
		return s.limitRepo.UpdateBaseAmount(ctx, tx, limitID, parsed.BaseAmount.String())
	})
	if err != nil {
		return nil, err
	}
	return s.limitRepo.FindByCategory(ctx, req.PeriodID, parsed.Kind, parsed.Category)
}

// RemoveLimit 从预算期的树里整体移除限额；全局分类目录不受影响
func (s *BudgetService) RemoveLimit(ctx context.Context, limitID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.limitRepo.Delete(ctx, tx, limitID)
	})
}

// PeriodTotals 读取路径：某棵限额树的逐分类总额与合计，每次重算
func (s *BudgetService) PeriodTotals(ctx context.Context, periodID int64, kind string) ([]domain.CategoryLimit, decimal.Decimal, error) {
	k := domain.LimitKind(kind)
	if !k.IsValid() {
		return nil, decimal.Zero, apperr.New(apperr.Validation, "invalid limit kind: %s", kind)
	}
	if _, err := s.periodRepo.FindByID(ctx, periodID); err != nil {
		return nil, decimal.Zero, err
	}

	limits, err := s.limitRepo.ListByPeriod(ctx, periodID, k)
	if err != nil {
		return nil, decimal.Zero, err
	}

	var total decimal.Decimal
	for i := range limits {
		total = total.Add(limits[i].Total())
	}
	return limits, total, nil
}

// ListPeriods 查询全部预算期
func (s *BudgetService) ListPeriods(ctx context.Context) ([]domain.BudgetPeriod, error) {
	return s.periodRepo.List(ctx)
}
