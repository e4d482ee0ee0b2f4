package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/ledger/domain"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

// TransactionRequest 定义记账请求的 DTO (Input)
type TransactionRequest struct {
	Type      string
	Amount    string // 传字符串防止精度丢失
	Date      time.Time
	Method    string // 账户名称
	Category  string
	IsFlagged bool
	RiskLevel string
}

// AccountRequest 账户创建/编辑请求
type AccountRequest struct {
	Name           string
	Group          string
	Type           string
	Currency       string
	OpeningBalance string
}

// FinanceService 财务核心服务
type FinanceService struct {
	db          *gorm.DB // 用于开启事务
	accountRepo domain.AccountRepository
	txRepo      domain.TransactionRepository
	logger      *zap.Logger
}

func NewFinanceService(db *gorm.DB, accRepo domain.AccountRepository, txRepo domain.TransactionRepository, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		db:          db,
		accountRepo: accRepo,
		txRepo:      txRepo,
		logger:      logger,
	}
}

// AddTransaction 记一笔流水 (ACID Transaction Script)
func (s *FinanceService) AddTransaction(ctx context.Context, req TransactionRequest) (*domain.Transaction, error) {
	// 1. 基础校验
	txType := domain.TransactionType(req.Type)
	if !txType.IsValid() {
		return nil, apperr.New(apperr.Validation, "invalid transaction type: %s", req.Type)
	}
	if req.Method == "" {
		return nil, apperr.New(apperr.Validation, "method (account name) is required")
	}
	if req.Date.IsZero() {
		return nil, apperr.New(apperr.Validation, "date is required")
	}
	amt, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid amount format: %s", req.Amount)
	}
	if amt.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.Validation, "amount must be positive")
	}

	risk := domain.RiskLevel(req.RiskLevel)
	if req.RiskLevel == "" {
		risk = domain.RiskLow
	} else if !risk.IsValid() {
		return nil, apperr.New(apperr.Validation, "invalid risk level: %s", req.RiskLevel)
	}

	// 2. Method 必须能按名称解析到账户
	if _, err := s.accountRepo.FindByName(ctx, req.Method); err != nil {
		return nil, err
	}

	entity := &domain.Transaction{
		Type:      txType,
		Amount:    amt,
		Date:      req.Date,
		Method:    req.Method,
		Category:  req.Category,
		IsFlagged: req.IsFlagged,
		RiskLevel: risk,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.txRepo.Create(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction recorded",
		zap.Int64("id", entity.ID),
		zap.String("type", string(entity.Type)),
		zap.String("method", entity.Method))
	return entity, nil
}

// UpdateTransaction 修正流水（只允许金额/分类/日期的编辑，不允许改写软删除的行）
func (s *FinanceService) UpdateTransaction(ctx context.Context, id int64, amount string, category string, date time.Time) (*domain.Transaction, error) {
	entity, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.SoftDeleted {
		return nil, apperr.New(apperr.PreconditionFailed, "transaction %d is deleted; restore it first", id)
	}

	if amount != "" {
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid amount format: %s", amount)
		}
		if amt.LessThanOrEqual(decimal.Zero) {
			return nil, apperr.New(apperr.Validation, "amount must be positive")
		}
		entity.Amount = amt
	}
	if category != "" {
		entity.Category = category
	}
	if !date.IsZero() {
		entity.Date = date
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.txRepo.Update(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// DeleteTransaction 软删除：移入"已删除"视图，可恢复
// 删除原因必填（审计要求）
func (s *FinanceService) DeleteTransaction(ctx context.Context, id int64, reason string) error {
	if reason == "" {
		return apperr.New(apperr.Validation, "delete reason is required")
	}

	entity, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entity.SoftDeleted {
		return apperr.New(apperr.PreconditionFailed, "transaction %d is already deleted", id)
	}

	now := time.Now()
	entity.SoftDeleted = true
	entity.DeleteReason = reason
	entity.DeletedDate = &now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.txRepo.Update(ctx, tx, entity)
	})
	if err != nil {
		return err
	}

	s.logger.Info("transaction soft-deleted", zap.Int64("id", id), zap.String("reason", reason))
	return nil
}

// RestoreTransaction 从"已删除"视图恢复
func (s *FinanceService) RestoreTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	entity, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.SoftDeleted {
		return nil, apperr.New(apperr.PreconditionFailed, "transaction %d is not deleted", id)
	}

	entity.SoftDeleted = false
	entity.DeleteReason = ""
	entity.DeletedDate = nil

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.txRepo.Update(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// AddAccount 新建账户
func (s *FinanceService) AddAccount(ctx context.Context, req AccountRequest) (*domain.Account, error) {
	accType := domain.AccountType(req.Type)
	if !accType.IsValid() {
		return nil, apperr.New(apperr.Validation, "invalid account type: %s", req.Type)
	}
	if req.Name == "" {
		return nil, apperr.New(apperr.Validation, "account name is required")
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid opening balance: %s", req.OpeningBalance)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "BDT"
	}

	entity := &domain.Account{
		Name:           req.Name,
		Group:          req.Group,
		Type:           accType,
		Currency:       currency,
		OpeningBalance: opening,
		Version:        1,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.accountRepo.Create(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.Int64("id", entity.ID), zap.String("name", entity.Name))
	return entity, nil
}

// UpdateAccount 编辑账户（创建后只有 name/group 可改）
// version 由调用方在读取时拿到，写回时校验乐观锁
func (s *FinanceService) UpdateAccount(ctx context.Context, id int64, name, group string, version int64) (*domain.Account, error) {
	entity, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		entity.Name = name
	}
	if group != "" {
		entity.Group = group
	}
	entity.Version = version

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.accountRepo.Update(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}
	return s.accountRepo.FindByID(ctx, id)
}

// DeleteAccount 硬删除账户
// 前置条件：没有任何未软删除的流水按名称引用该账户
func (s *FinanceService) DeleteAccount(ctx context.Context, id int64) error {
	entity, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	// 引用计数和删除放在同一事务里，防止计数后、删除前插进来新流水
	return s.db.Transaction(func(tx *gorm.DB) error {
		count, err := s.txRepo.CountActiveByMethod(ctx, tx, entity.Name)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.New(apperr.PreconditionFailed,
				"account %q has %d referencing transactions and cannot be deleted", entity.Name, count)
		}
		return s.accountRepo.Delete(ctx, tx, id)
	})
}

// AccountBalance 读取路径：每次基于全量历史重算，绝不缓存
func (s *FinanceService) AccountBalance(ctx context.Context, id int64) (*domain.Account, decimal.Decimal, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, decimal.Zero, err
	}

	txns, err := s.txRepo.ListActiveByMethod(ctx, account.Name)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return account, ResolveAccountBalance(account, txns), nil
}

// ListAccounts 查询全部账户
func (s *FinanceService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accountRepo.List(ctx)
}

// ListTransactions 查询未删除流水
func (s *FinanceService) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.txRepo.ListActive(ctx)
}

// ListDeletedTransactions 查询"回收站"流水
func (s *FinanceService) ListDeletedTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.txRepo.ListDeleted(ctx)
}
