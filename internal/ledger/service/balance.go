package service

import (
	"github.com/shopspring/decimal"

	"github.com/xxz807/eduledger/backend/internal/ledger/domain"
)

// ResolveAccountBalance 折算账户当前余额（纯函数，无副作用，每次调用重算）
// 资产类：余额 = 期初 + Σ收入 − Σ支出
// 负债类：余额 = 期初 + Σ支出 − Σ收入（花钱增加负债，还款减少负债）
// 软删除的流水不计入；没有匹配流水时恰好返回期初余额
func ResolveAccountBalance(account *domain.Account, txns []domain.Transaction) decimal.Decimal {
	var income, expense decimal.Decimal

	for _, t := range txns {
		if t.SoftDeleted || t.Method != account.Name {
			continue
		}
		switch t.Type {
		case domain.Income:
			income = income.Add(t.Amount)
		case domain.Expense:
			expense = expense.Add(t.Amount)
		}
	}

	if account.Type == domain.Liability {
		return account.OpeningBalance.Add(expense).Sub(income)
	}
	return account.OpeningBalance.Add(income).Sub(expense)
}
