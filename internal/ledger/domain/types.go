package domain

// AccountType 账户类型
type AccountType string

const (
	Asset     AccountType = "asset"     // 资产
	Liability AccountType = "liability" // 负债
)

// IsValid 校验账户类型合法性
func (t AccountType) IsValid() bool {
	return t == Asset || t == Liability
}

// TransactionType 流水方向
type TransactionType string

const (
	Income  TransactionType = "income"  // 收入
	Expense TransactionType = "expense" // 支出
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// RiskLevel 风险等级，由财务人员人工评定
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}
