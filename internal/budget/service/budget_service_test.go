package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xxz807/eduledger/backend/internal/budget/adapter/repo"
	"github.com/xxz807/eduledger/backend/internal/budget/domain"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
	"github.com/xxz807/eduledger/backend/internal/platform/database"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// newTestService 用内存 sqlite 搭一套完整服务（仓储是真实现，不打桩）
func newTestService(t *testing.T) *BudgetService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // 内存库必须单连接，否则每个连接各看一份空库

	require.NoError(t, database.AutoMigrate(db))

	return NewBudgetService(db, repo.NewPeriodRepo(db), repo.NewLimitRepo(db), zap.NewNop())
}

func mustPeriod(t *testing.T, s *BudgetService, name string) *domain.BudgetPeriod {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period, err := s.CreatePeriod(context.Background(), name, start, start.AddDate(0, 6, 0))
	require.NoError(t, err)
	return period
}

func TestCreatePeriod_Validation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.CreatePeriod(ctx, "", now, now.AddDate(0, 1, 0))
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.CreatePeriod(ctx, "backwards", now, now.AddDate(0, -1, 0))
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestAddLimit_DuplicateCategoryIsNoOp(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	period := mustPeriod(t, s, "2026 H1")

	first, err := s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Stationery", BaseAmount: "5000",
	})
	require.NoError(t, err)

	// 重复添加同一分类：直接返回已有限额，金额不被覆盖
	second, err := s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Stationery", BaseAmount: "9999",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, d("5000").Equal(second.BaseAmount))

	// 两棵树相互独立：income 树里是另一条记录
	income, err := s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "income", Category: "Stationery", BaseAmount: "100",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, income.ID)
}

func TestUpdateLimit_SwitchesBetweenFlatAndSubcategories(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	period := mustPeriod(t, s, "2026 H1")
	limit, err := s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Supplies", BaseAmount: "5000",
	})
	require.NoError(t, err)

	// 转为子分类驱动
	updated, err := s.UpdateLimit(ctx, limit.ID, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Supplies", BaseAmount: "0",
		Subcategories: []SubcategoryRequest{
			{Name: "textbooks", Amount: "3000"},
			{Name: "lab equipment", Amount: "1500"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Subcategories, 2)
	assert.True(t, d("4500").Equal(updated.Total()))

	// 回到平面模式：子分类整体清掉，两种模式绝不同时生效
	updated, err = s.UpdateLimit(ctx, limit.ID, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Supplies", BaseAmount: "6000",
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Subcategories)
	assert.True(t, d("6000").Equal(updated.Total()))
}

func TestPeriodTotals(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	period := mustPeriod(t, s, "2026 H1")

	_, err := s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Stationery", BaseAmount: "5000",
	})
	require.NoError(t, err)
	_, err = s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Supplies",
		Subcategories: []SubcategoryRequest{
			{Name: "textbooks", Amount: "3000"},
			{Name: "lab equipment", Amount: "1500"},
		},
	})
	require.NoError(t, err)
	// income 树不影响 expense 合计
	_, err = s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "income", Category: "Donations", BaseAmount: "88888",
	})
	require.NoError(t, err)

	limits, total, err := s.PeriodTotals(ctx, period.ID, "expense")
	require.NoError(t, err)
	assert.Len(t, limits, 2)
	assert.True(t, d("9500").Equal(total), "got %s", total)
}

func TestRemoveLimit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	period := mustPeriod(t, s, "2026 H1")
	limit, err := s.AddLimit(ctx, LimitRequest{
		PeriodID: period.ID, Kind: "expense", Category: "Stationery", BaseAmount: "5000",
		Subcategories: []SubcategoryRequest{{Name: "pens", Amount: "200"}},
	})
	require.NoError(t, err)

	require.NoError(t, s.RemoveLimit(ctx, limit.ID))

	_, total, err := s.PeriodTotals(ctx, period.ID, "expense")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestAddLimit_Validation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	period := mustPeriod(t, s, "2026 H1")

	_, err := s.AddLimit(ctx, LimitRequest{PeriodID: period.ID, Kind: "savings", Category: "X"})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.AddLimit(ctx, LimitRequest{PeriodID: period.ID, Kind: "expense", Category: ""})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.AddLimit(ctx, LimitRequest{PeriodID: period.ID, Kind: "expense", Category: "X", BaseAmount: "-1"})
	assert.True(t, apperr.Is(err, apperr.Validation))

	// 预算期必须存在
	_, err = s.AddLimit(ctx, LimitRequest{PeriodID: 9999, Kind: "expense", Category: "X", BaseAmount: "1"})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
