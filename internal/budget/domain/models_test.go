package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCategoryLimitTotal_FlatAmount(t *testing.T) {
	limit := &CategoryLimit{BaseAmount: decimal.NewFromInt(5000)}
	assert.True(t, decimal.NewFromInt(5000).Equal(limit.Total()))
}

// 有子分类时总额由子分类驱动，BaseAmount 不参与
func TestCategoryLimitTotal_SubcategoryDriven(t *testing.T) {
	limit := &CategoryLimit{
		BaseAmount: decimal.NewFromInt(9999),
		Subcategories: []Subcategory{
			{Name: "textbooks", Amount: decimal.NewFromInt(3000)},
			{Name: "lab equipment", Amount: decimal.NewFromInt(1500)},
		},
	}
	assert.True(t, decimal.NewFromInt(4500).Equal(limit.Total()))
}

func TestLimitKindIsValid(t *testing.T) {
	assert.True(t, KindExpense.IsValid())
	assert.True(t, KindIncome.IsValid())
	assert.False(t, LimitKind("savings").IsValid())
}
