package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xxz807/eduledger/backend/internal/ledger/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func txn(txType domain.TransactionType, amount, method string) domain.Transaction {
	return domain.Transaction{
		Type:   txType,
		Amount: d(amount),
		Method: method,
		Date:   time.Now(),
	}
}

func TestResolveAccountBalance_Asset(t *testing.T) {
	acc := &domain.Account{Name: "Cash", Type: domain.Asset, OpeningBalance: d("100000")}
	txns := []domain.Transaction{
		txn(domain.Income, "50000", "Cash"),
		txn(domain.Expense, "20000", "Cash"),
	}

	// 资产类：100000 + 50000 − 20000 = 130000
	assert.True(t, d("130000").Equal(ResolveAccountBalance(acc, txns)))
}

func TestResolveAccountBalance_Liability(t *testing.T) {
	acc := &domain.Account{Name: "School Credit", Type: domain.Liability, OpeningBalance: d("5000")}
	txns := []domain.Transaction{
		txn(domain.Expense, "3000", "School Credit"), // 刷卡消费：负债增加
		txn(domain.Income, "1000", "School Credit"),  // 还款：负债减少
	}

	assert.True(t, d("7000").Equal(ResolveAccountBalance(acc, txns)))
}

func TestResolveAccountBalance_NoTransactions(t *testing.T) {
	acc := &domain.Account{Name: "Cash", Type: domain.Asset, OpeningBalance: d("42.5")}
	assert.True(t, d("42.5").Equal(ResolveAccountBalance(acc, nil)))
}

func TestResolveAccountBalance_SkipsSoftDeletedAndOtherAccounts(t *testing.T) {
	acc := &domain.Account{Name: "Cash", Type: domain.Asset, OpeningBalance: d("100")}

	deleted := txn(domain.Expense, "60", "Cash")
	deleted.SoftDeleted = true

	txns := []domain.Transaction{
		txn(domain.Income, "50", "Cash"),
		txn(domain.Income, "999", "Bank"), // 别的账户
		deleted,
	}

	assert.True(t, d("150").Equal(ResolveAccountBalance(acc, txns)))
}

// 余额是流水的纯折算：结果与历史顺序无关
func TestResolveAccountBalance_OrderIndependent(t *testing.T) {
	acc := &domain.Account{Name: "Cash", Type: domain.Asset, OpeningBalance: d("1000")}
	txns := []domain.Transaction{
		txn(domain.Income, "300", "Cash"),
		txn(domain.Expense, "120", "Cash"),
		txn(domain.Income, "75.25", "Cash"),
		txn(domain.Expense, "0.25", "Cash"),
	}

	want := ResolveAccountBalance(acc, txns)

	reversed := make([]domain.Transaction, len(txns))
	for i := range txns {
		reversed[len(txns)-1-i] = txns[i]
	}
	assert.True(t, want.Equal(ResolveAccountBalance(acc, reversed)))
	assert.True(t, d("1255").Equal(want))
}
